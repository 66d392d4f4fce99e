package payments

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	commonhandler "membership-app-go/internal/transport/httpserver/handler/common"
	"membership-app-go/internal/transport/httpserver/middleware"
)

func writeError(w http.ResponseWriter, status int, code, message string) {
	commonhandler.WriteError(w, status, code, message)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	commonhandler.WriteJSON(w, status, payload)
}

func currentUser(w http.ResponseWriter, r *http.Request) (middleware.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
	}
	return user, ok
}

func paymentIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	paymentID := strings.TrimSpace(chi.URLParam(r, "id"))
	if paymentID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return "", false
	}
	return paymentID, true
}
