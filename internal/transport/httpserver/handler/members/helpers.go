package members

import (
	"net/http"

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
