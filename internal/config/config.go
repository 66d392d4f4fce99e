package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"membership-app-go/pkg/logger"
)

type Config struct {
	HTTPPort           string
	Env                string
	CORSAllowedOrigins []string
	HTTP               HTTPConfig
	DB                 DBConfig
	Auth               AuthConfig
	Redis              RedisConfig
	Dashboard          DashboardConfig
	Uploads            UploadsConfig
	Membership         MembershipConfig
}

// HTTPConfig bounds the server. WriteTimeout must cover RequestTimeout plus
// the time to stream a document upload.
type HTTPConfig struct {
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	RequestTimeout    time.Duration
	ShutdownTimeout   time.Duration
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LockTimeout     time.Duration
	AutoMigrate     bool

	// SlowQueryThreshold logs statements slower than this at WARN. Zero disables it.
	SlowQueryThreshold time.Duration
}

type AuthConfig struct {
	JWTSecret     string
	JWTIssuer     string
	TokenTTL      time.Duration
	BcryptCost    int
	SkipAuth      bool
	MockUserID    string
	MockUserName  string
	MockUserType  string
	MockUserEmail string
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DashboardConfig struct {
	CacheTTL time.Duration
}

type UploadsConfig struct {
	Dir      string
	MaxBytes int64
}

type MembershipConfig struct {
	IDPrefix        string
	DefaultCurrency string
	PhoneRegion     string
}

func Load(log logger.Logger) (Config, error) {
	err := loadDotEnv(log)
	if err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		HTTP: HTTPConfig{
			ReadHeaderTimeout: getEnvDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvDuration("HTTP_READ_TIMEOUT", time.Minute),
			WriteTimeout:      getEnvDuration("HTTP_WRITE_TIMEOUT", time.Minute),
			IdleTimeout:       getEnvDuration("HTTP_IDLE_TIMEOUT", 2*time.Minute),
			RequestTimeout:    getEnvDuration("HTTP_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout:   getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "membership"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			LockTimeout:     getEnvDuration("DB_LOCK_TIMEOUT", 5*time.Second),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),

			SlowQueryThreshold: getEnvDuration("DB_SLOW_QUERY_THRESHOLD", 200*time.Millisecond),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("AUTH_JWT_SECRET", ""),
			JWTIssuer:     getEnv("AUTH_JWT_ISSUER", "membership-app"),
			TokenTTL:      getEnvDuration("AUTH_TOKEN_TTL", 12*time.Hour),
			BcryptCost:    getEnvInt("AUTH_BCRYPT_COST", 12),
			SkipAuth:      getEnvBool("AUTH_SKIP", false),
			MockUserID:    getEnv("AUTH_MOCK_USER_ID", "00000000-0000-0000-0000-000000000001"),
			MockUserName:  getEnv("AUTH_MOCK_USER_NAME", "dev-admin"),
			MockUserType:  getEnv("AUTH_MOCK_USER_TYPE", "admin"),
			MockUserEmail: getEnv("AUTH_MOCK_USER_EMAIL", ""),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", ""),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Dashboard: DashboardConfig{
			CacheTTL: getEnvDuration("DASHBOARD_CACHE_TTL", 30*time.Second),
		},
		Uploads: UploadsConfig{
			Dir:      getEnv("UPLOADS_DIR", "uploads"),
			MaxBytes: int64(getEnvInt("UPLOADS_MAX_BYTES", 5<<20)),
		},
		Membership: MembershipConfig{
			IDPrefix:        strings.ToUpper(getEnv("MEMBERSHIP_ID_PREFIX", "KTS")),
			DefaultCurrency: strings.ToUpper(getEnv("DEFAULT_CURRENCY", "KES")),
			PhoneRegion:     strings.ToUpper(getEnv("PHONE_REGION", "KE")),
		},
	}

	if cfg.Auth.JWTSecret == "" && !cfg.Auth.SkipAuth {
		if cfg.Env != "development" {
			return Config{}, fmt.Errorf("AUTH_JWT_SECRET is required outside development")
		}
		log.Warn("config: AUTH_JWT_SECRET not set, using development secret")
		cfg.Auth.JWTSecret = "development-secret"
	}

	if cfg.HTTP.WriteTimeout > 0 && cfg.HTTP.WriteTimeout <= cfg.HTTP.RequestTimeout {
		return Config{}, fmt.Errorf("HTTP_WRITE_TIMEOUT (%s) must exceed HTTP_REQUEST_TIMEOUT (%s)", cfg.HTTP.WriteTimeout, cfg.HTTP.RequestTimeout)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
