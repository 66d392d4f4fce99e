package admin

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	userdomain "membership-app-go/internal/domain/user"
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

func pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", name+" is required")
		return "", false
	}
	return value, true
}

// activeOnly reads the "active" query flag. Staff see inactive rows unless
// they ask otherwise; everyone else only sees active ones.
func activeOnly(w http.ResponseWriter, r *http.Request) (bool, bool) {
	flag, err := commonhandler.ParseBoolParam(r.URL.Query().Get("active"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid active")
		return false, false
	}
	user, _ := middleware.UserFromContext(r.Context())
	if user.UserType != userdomain.TypeAdmin && user.UserType != userdomain.TypeStaff {
		return true, true
	}
	if flag == nil {
		return false, true
	}
	return *flag, true
}
