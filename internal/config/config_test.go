package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-app-go/pkg/logger"
)

func writeEnvFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	t.Setenv(envFileVar, path)
	return path
}

func TestReadDotEnv(t *testing.T) {
	input := strings.Join([]string{
		"# comment",
		"",
		"export HTTP_PORT=9090",
		`DB_PASSWORD="p@ss word\n"`,
		"MEMBERSHIP_ID_PREFIX='KTS ${NOPE}'",
		"DEFAULT_CURRENCY=kes # trailing comment",
		"EMPTY=",
	}, "\n")

	entries, err := readDotEnv(strings.NewReader(input), "test.env")
	require.NoError(t, err)
	require.Len(t, entries, 5)

	assert.Equal(t, dotenvEntry{key: "HTTP_PORT", value: "9090", line: 3}, entries[0])
	assert.Equal(t, "p@ss word\n", entries[1].value)
	assert.Equal(t, "KTS ${NOPE}", entries[2].value)
	assert.True(t, entries[2].literal)
	assert.Equal(t, "kes", entries[3].value)
	assert.Equal(t, "", entries[4].value)
}

func TestReadDotEnvReportsLine(t *testing.T) {
	_, err := readDotEnv(strings.NewReader("HTTP_PORT=8080\nnot a pair\n"), "test.env")

	var dotErr *DotEnvError
	require.ErrorAs(t, err, &dotErr)
	assert.Equal(t, 2, dotErr.Line)
	assert.Equal(t, "test.env:2: expected KEY=VALUE", err.Error())

	_, err = readDotEnv(strings.NewReader("A='open\n"), "test.env")
	require.ErrorAs(t, err, &dotErr)
	assert.Equal(t, 1, dotErr.Line)
}

func TestApplyDotEnvKeepsExistingAndExpands(t *testing.T) {
	t.Setenv("DB_HOST", "from-env")
	t.Setenv("DB_NAME", "")
	os.Unsetenv("DB_NAME")
	t.Setenv("DB_DSN", "")
	os.Unsetenv("DB_DSN")

	applied, kept, err := applyDotEnv([]dotenvEntry{
		{key: "DB_HOST", value: "from-file"},
		{key: "DB_NAME", value: "membership"},
		{key: "DB_DSN", value: "host=${DB_HOST} dbname=${DB_NAME}"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, applied)
	assert.Equal(t, 1, kept)
	assert.Equal(t, "from-env", os.Getenv("DB_HOST"))
	assert.Equal(t, "host=from-env dbname=membership", os.Getenv("DB_DSN"))
}

func TestLoadDefaults(t *testing.T) {
	writeEnvFile(t, "")
	t.Setenv("ENV", "development")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("MEMBERSHIP_ID_PREFIX", "kts")

	cfg, err := Load(logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, "KTS", cfg.Membership.IDPrefix)
	assert.Equal(t, "KES", cfg.Membership.DefaultCurrency)
	assert.Equal(t, "KE", cfg.Membership.PhoneRegion)
	assert.Equal(t, "development-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 5*time.Second, cfg.DB.LockTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout)
	assert.Greater(t, cfg.HTTP.WriteTimeout, cfg.HTTP.RequestTimeout)
}

func TestLoadReadsEnvFile(t *testing.T) {
	writeEnvFile(t, "HTTP_PORT=9191\nDB_LOCK_TIMEOUT=750ms\nCORS_ALLOWED_ORIGINS=https://a.example, https://b.example\n")
	t.Setenv("HTTP_PORT", "")
	os.Unsetenv("HTTP_PORT")
	t.Setenv("DB_LOCK_TIMEOUT", "")
	os.Unsetenv("DB_LOCK_TIMEOUT")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	os.Unsetenv("CORS_ALLOWED_ORIGINS")

	cfg, err := Load(logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.HTTPPort)
	assert.Equal(t, 750*time.Millisecond, cfg.DB.LockTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadRequiresSecretOutsideDevelopment(t *testing.T) {
	writeEnvFile(t, "")
	t.Setenv("ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("AUTH_SKIP", "false")

	_, err := Load(logger.Nop())
	assert.ErrorContains(t, err, "AUTH_JWT_SECRET")
}

func TestLoadRejectsWriteTimeoutBelowRequestTimeout(t *testing.T) {
	writeEnvFile(t, "")
	t.Setenv("ENV", "development")
	t.Setenv("HTTP_REQUEST_TIMEOUT", "30s")
	t.Setenv("HTTP_WRITE_TIMEOUT", "10s")

	_, err := Load(logger.Nop())
	assert.ErrorContains(t, err, "HTTP_WRITE_TIMEOUT")
}

func TestGetDSN(t *testing.T) {
	cfg := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "membership", SSLMode: "disable", TimeZone: "UTC"}
	assert.Equal(t, "host=db user=u password=p dbname=membership port=5432 sslmode=disable TimeZone=UTC", cfg.GetDSN())

	cfg.DSN = "postgres://explicit"
	assert.Equal(t, "postgres://explicit", cfg.GetDSN())
}
