package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsHandler(origins ...string) http.Handler {
	return NewCORS(DefaultCORSOptions(origins))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
}

func TestCORSPreflightFromAllowedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/members", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	corsHandler("http://localhost:5173").ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORSWildcardSubdomain(t *testing.T) {
	handler := corsHandler("https://*.kts.or.ke")

	for origin, allowed := range map[string]bool{
		"https://portal.kts.or.ke": true,
		"https://kts.or.ke":        false,
		"http://portal.kts.or.ke":  false,
		"https://evil-kts.or.ke":   false,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code, origin)
		if allowed {
			assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"), origin)
		} else {
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), origin)
		}
	}
}

func TestCORSPlainOptionsReachesRouter(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	rec := httptest.NewRecorder()

	corsHandler("http://localhost:5173").ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestCORSDisallowedOriginGetsNoAllowHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/members", nil)
	req.Header.Set("Origin", "https://other.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()

	corsHandler("http://localhost:5173").ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}
