//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"membership-app-go/internal/app"
	"membership-app-go/pkg/logger"
)

type testEnv struct {
	server *httptest.Server
	app    *app.App
	db     *gorm.DB
	client *http.Client
}

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("E2E_DB_DSN")
	if dsn == "" {
		t.Skip("E2E_DB_DSN not set; skipping e2e tests")
	}

	t.Setenv("DB_DSN", dsn)
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("REDIS_URL", "")
	t.Setenv("AUTH_JWT_SECRET", "e2e-secret")
	t.Setenv("AUTH_BCRYPT_COST", "4")
	t.Setenv("UPLOADS_DIR", t.TempDir())

	application, err := app.New(logger.Nop())
	require.NoError(t, err)

	dbConn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, cleanDB(dbConn))

	server := httptest.NewServer(application.HTTPServer().Handler)
	env := &testEnv{
		server: server,
		app:    application,
		db:     dbConn,
		client: &http.Client{Timeout: 5 * time.Second},
	}
	t.Cleanup(env.Close)
	return env
}

func (e *testEnv) Close() {
	e.server.Close()
	_ = e.app.Close()
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func cleanDB(dbConn *gorm.DB) error {
	return dbConn.WithContext(context.Background()).Exec(
		"TRUNCATE TABLE notifications, audit_logs, membership_certificates, membership_renewals, payment_receipts, payments, " +
			"member_documents, members, membership_categories, regions, countries, system_settings, sequence_counters, users CASCADE",
	).Error
}

func (e *testEnv) requestJSON(t *testing.T, method, path, token string, payload interface{}) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBody
}

func (e *testEnv) expect(t *testing.T, status int, method, path, token string, payload, out interface{}) {
	t.Helper()
	resp, body := e.requestJSON(t, method, path, token, payload)
	require.Equal(t, status, resp.StatusCode, string(body))
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
}

// signUp registers an account and returns its token. Staff and admin
// accounts are promoted directly in the database; the middleware reloads
// the user type on every request.
func (e *testEnv) signUp(t *testing.T, username, userType string) (string, string) {
	t.Helper()
	var resp tokenResponse
	e.expect(t, http.StatusCreated, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "correct-horse",
	}, &resp)
	if userType != "member" {
		require.NoError(t, e.db.Exec("UPDATE users SET user_type = ? WHERE id = ?", userType, resp.User.ID).Error)
	}
	return resp.AccessToken, resp.User.ID
}

type errorEnvelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID       string `json:"id"`
		UserType string `json:"user_type"`
	} `json:"user"`
}

type idResponse struct {
	ID string `json:"id"`
}

type affectedResponse struct {
	Affected int64 `json:"affected"`
}

type memberResponse struct {
	ID              string  `json:"id"`
	MembershipID    string  `json:"membership_id"`
	Status          string  `json:"status"`
	EffectiveStatus string  `json:"effective_status"`
	ExpiryDate      *string `json:"expiry_date"`
}

type paymentResponse struct {
	ID        string `json:"id"`
	Reference string `json:"payment_reference"`
	Status    string `json:"status"`
}

type completeResponse struct {
	Affected int64 `json:"affected"`
	Receipt  *struct {
		ReceiptNumber string `json:"receipt_number"`
	} `json:"receipt"`
	Renewed       bool    `json:"renewed"`
	NewExpiryDate *string `json:"new_expiry_date"`
}

type renewalResponse struct {
	ID                 string `json:"id"`
	PreviousExpiryDate string `json:"previous_expiry_date"`
	NewExpiryDate      string `json:"new_expiry_date"`
	Status             string `json:"status"`
}

type renewalStartedResponse struct {
	Renewal renewalResponse `json:"renewal"`
	Payment paymentResponse `json:"payment"`
}

type certificateResponse struct {
	CertificateNumber string `json:"certificate_number"`
}

func TestE2EHealthAndAuth(t *testing.T) {
	env := setupE2E(t)

	var health struct {
		Status string `json:"status"`
	}
	env.expect(t, http.StatusOK, http.MethodGet, "/api/health", "", nil, &health)
	assert.Equal(t, "ok", health.Status)

	var errResp errorEnvelope
	env.expect(t, http.StatusUnauthorized, http.MethodGet, "/api/auth/me", "", nil, &errResp)
	assert.NotEmpty(t, errResp.Error.Code)

	token, userID := env.signUp(t, "wanjiru", "member")

	var me struct {
		ID       string `json:"id"`
		UserType string `json:"user_type"`
	}
	env.expect(t, http.StatusOK, http.MethodGet, "/api/auth/me", token, nil, &me)
	assert.Equal(t, userID, me.ID)
	assert.Equal(t, "member", me.UserType)

	env.expect(t, http.StatusForbidden, http.MethodGet, "/api/members", token, nil, nil)

	env.expect(t, http.StatusNoContent, http.MethodPost, "/api/auth/logout", token, nil, nil)
	env.expect(t, http.StatusUnauthorized, http.MethodGet, "/api/auth/me", token, nil, nil)
}

func TestE2EMembershipLifecycle(t *testing.T) {
	env := setupE2E(t)

	adminToken, _ := env.signUp(t, "admin", "admin")
	staffToken, _ := env.signUp(t, "staff", "staff")
	memberToken, _ := env.signUp(t, "otieno", "member")

	var category, country idResponse
	env.expect(t, http.StatusCreated, http.MethodPost, "/api/categories", adminToken, map[string]interface{}{
		"name":             "Ordinary",
		"description":      "Ordinary membership",
		"registration_fee": 500,
		"annual_fee":       1500,
		"duration_months":  12,
	}, &category)
	env.expect(t, http.StatusCreated, http.MethodPost, "/api/countries", adminToken, map[string]interface{}{
		"name": "Kenya",
		"code": "KE",
	}, &country)

	var member memberResponse
	env.expect(t, http.StatusCreated, http.MethodPost, "/api/member/registration", memberToken, map[string]interface{}{
		"category_id":      category.ID,
		"country_id":       country.ID,
		"first_name":       "Brian",
		"last_name":        "Otieno",
		"date_of_birth":    "1990-06-01",
		"gender":           "m",
		"national_id":      "22334455",
		"email":            "otieno@example.com",
		"phone_number":     "0712345678",
		"physical_address": "Kisumu",
	}, &member)
	assert.Regexp(t, `^KTS-\d{4}-\d{4}$`, member.MembershipID)
	assert.Equal(t, "pending", member.Status)

	var errResp errorEnvelope
	env.expect(t, http.StatusConflict, http.MethodPost, "/api/member/registration", memberToken, map[string]interface{}{
		"category_id":      category.ID,
		"country_id":       country.ID,
		"first_name":       "Brian",
		"last_name":        "Otieno",
		"date_of_birth":    "1990-06-01",
		"gender":           "m",
		"national_id":      "99887766",
		"email":            "otieno@example.com",
		"phone_number":     "0712345678",
		"physical_address": "Kisumu",
	}, &errResp)

	var affected affectedResponse
	env.expect(t, http.StatusOK, http.MethodPost, "/api/members/"+member.ID+"/approve", staffToken, nil, &affected)
	assert.Equal(t, int64(1), affected.Affected)

	env.expect(t, http.StatusOK, http.MethodPost, "/api/members/"+member.ID+"/approve", staffToken, nil, &affected)
	assert.Zero(t, affected.Affected)

	var approved memberResponse
	env.expect(t, http.StatusOK, http.MethodGet, "/api/members/"+member.ID, staffToken, nil, &approved)
	assert.Equal(t, "approved", approved.Status)
	assert.Equal(t, "active", approved.EffectiveStatus)
	require.NotNil(t, approved.ExpiryDate)

	var payment paymentResponse
	env.expect(t, http.StatusCreated, http.MethodPost, "/api/payments", staffToken, map[string]interface{}{
		"member_id":    member.ID,
		"payment_type": "registration",
		"amount":       500,
	}, &payment)
	assert.Regexp(t, `^PAY-\d{8}-[0-9A-F]{8}$`, payment.Reference)
	assert.Equal(t, "initiated", payment.Status)

	var completed completeResponse
	env.expect(t, http.StatusOK, http.MethodPost, "/api/payments/"+payment.ID+"/complete", staffToken, map[string]string{
		"mpesa_receipt_number": "QWE123RTY",
	}, &completed)
	assert.Equal(t, int64(1), completed.Affected)
	require.NotNil(t, completed.Receipt)
	assert.Regexp(t, `^RCT-\d{4}-\d{4}$`, completed.Receipt.ReceiptNumber)

	env.expect(t, http.StatusOK, http.MethodPost, "/api/payments/"+payment.ID+"/complete", staffToken, map[string]string{}, &completed)
	assert.Zero(t, completed.Affected)

	var certificate certificateResponse
	env.expect(t, http.StatusCreated, http.MethodPost, "/api/members/"+member.ID+"/certificates", staffToken, nil, &certificate)
	assert.Regexp(t, `^CERT-\d{4}-\d{4}$`, certificate.CertificateNumber)

	var notifications struct {
		Items []struct {
			Type string `json:"notification_type"`
		} `json:"items"`
	}
	env.expect(t, http.StatusOK, http.MethodGet, "/api/notifications", memberToken, nil, &notifications)
	assert.NotEmpty(t, notifications.Items)

	env.expect(t, http.StatusConflict, http.MethodDelete, "/api/categories/"+category.ID, adminToken, nil, &errResp)

	env.expect(t, http.StatusForbidden, http.MethodDelete, "/api/members/"+member.ID, staffToken, nil, nil)
	env.expect(t, http.StatusNoContent, http.MethodDelete, "/api/members/"+member.ID, adminToken, nil, nil)
	env.expect(t, http.StatusNotFound, http.MethodGet, "/api/payments/"+payment.ID, staffToken, nil, nil)
	env.expect(t, http.StatusNoContent, http.MethodDelete, "/api/categories/"+category.ID, adminToken, nil, nil)
}

// approvedMember registers a member for memberToken in categoryID and has
// staff approve it.
func (e *testEnv) approvedMember(t *testing.T, memberToken, staffToken, categoryID, countryID, nationalID, phone string) memberResponse {
	t.Helper()
	var member memberResponse
	e.expect(t, http.StatusCreated, http.MethodPost, "/api/member/registration", memberToken, map[string]interface{}{
		"category_id":      categoryID,
		"country_id":       countryID,
		"first_name":       "Achieng",
		"last_name":        "Odhiambo",
		"date_of_birth":    "1988-02-11",
		"gender":           "f",
		"national_id":      nationalID,
		"email":            nationalID + "@example.com",
		"phone_number":     phone,
		"physical_address": "Nakuru",
	}, &member)

	var affected affectedResponse
	e.expect(t, http.StatusOK, http.MethodPost, "/api/members/"+member.ID+"/approve", staffToken, nil, &affected)
	require.Equal(t, int64(1), affected.Affected)

	e.expect(t, http.StatusOK, http.MethodGet, "/api/members/"+member.ID, staffToken, nil, &member)
	require.NotNil(t, member.ExpiryDate)
	return member
}

func TestE2ERenewalPaymentExtendsExpiry(t *testing.T) {
	env := setupE2E(t)

	adminToken, _ := env.signUp(t, "admin", "admin")
	staffToken, _ := env.signUp(t, "staff", "staff")
	firstToken, _ := env.signUp(t, "achieng", "member")
	secondToken, _ := env.signUp(t, "kamau", "member")

	var category, country idResponse
	env.expect(t, http.StatusCreated, http.MethodPost, "/api/categories", adminToken, map[string]interface{}{
		"name":             "Life",
		"registration_fee": 500,
		"annual_fee":       2000,
		"duration_months":  12,
	}, &category)
	env.expect(t, http.StatusCreated, http.MethodPost, "/api/countries", adminToken, map[string]interface{}{
		"name": "Kenya",
		"code": "KE",
	}, &country)

	first := env.approvedMember(t, firstToken, staffToken, category.ID, country.ID, "31415926", "0711000001")

	var started renewalStartedResponse
	env.expect(t, http.StatusCreated, http.MethodPost, "/api/members/"+first.ID+"/renewals", staffToken, map[string]string{}, &started)
	assert.Equal(t, "pending_payment", started.Renewal.Status)
	assert.Equal(t, *first.ExpiryDate, started.Renewal.PreviousExpiryDate)
	assert.Equal(t, "initiated", started.Payment.Status)

	var completed completeResponse
	env.expect(t, http.StatusOK, http.MethodPost, "/api/payments/"+started.Payment.ID+"/complete", staffToken, map[string]string{}, &completed)
	assert.Equal(t, int64(1), completed.Affected)
	assert.True(t, completed.Renewed)
	require.NotNil(t, completed.Receipt)
	assert.Regexp(t, `^RCT-\d{4}-\d{4}$`, completed.Receipt.ReceiptNumber)
	require.NotNil(t, completed.NewExpiryDate)
	assert.Equal(t, started.Renewal.NewExpiryDate, *completed.NewExpiryDate)

	var renewed memberResponse
	env.expect(t, http.StatusOK, http.MethodGet, "/api/members/"+first.ID, staffToken, nil, &renewed)
	require.NotNil(t, renewed.ExpiryDate)
	assert.Equal(t, started.Renewal.NewExpiryDate, *renewed.ExpiryDate)
	assert.NotEqual(t, *first.ExpiryDate, *renewed.ExpiryDate)

	var renewals []renewalResponse
	env.expect(t, http.StatusOK, http.MethodGet, "/api/members/"+first.ID+"/renewals", staffToken, nil, &renewals)
	require.Len(t, renewals, 1)
	assert.Equal(t, "completed", renewals[0].Status)

	env.expect(t, http.StatusOK, http.MethodPost, "/api/payments/"+started.Payment.ID+"/complete", staffToken, map[string]string{}, &completed)
	assert.Zero(t, completed.Affected)
	assert.False(t, completed.Renewed)

	second := env.approvedMember(t, secondToken, staffToken, category.ID, country.ID, "27182818", "0711000002")
	var secondStarted renewalStartedResponse
	env.expect(t, http.StatusCreated, http.MethodPost, "/api/members/"+second.ID+"/renewals", staffToken, map[string]string{}, &secondStarted)

	var affected affectedResponse
	env.expect(t, http.StatusOK, http.MethodPost, "/api/payments/bulk", staffToken, map[string]interface{}{
		"action": "complete",
		"ids":    []string{started.Payment.ID, secondStarted.Payment.ID},
	}, &affected)
	assert.Equal(t, int64(1), affected.Affected)

	env.expect(t, http.StatusOK, http.MethodGet, "/api/members/"+second.ID, staffToken, nil, &renewed)
	require.NotNil(t, renewed.ExpiryDate)
	assert.Equal(t, secondStarted.Renewal.NewExpiryDate, *renewed.ExpiryDate)

	env.expect(t, http.StatusOK, http.MethodGet, "/api/members/"+second.ID+"/renewals", staffToken, nil, &renewals)
	require.Len(t, renewals, 1)
	assert.Equal(t, "completed", renewals[0].Status)
}
