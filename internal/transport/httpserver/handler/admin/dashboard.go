package admin

import (
	"net/http"

	commonhandler "membership-app-go/internal/transport/httpserver/handler/common"
)

func (h *Handlers) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.Dashboard.Admin(r.Context(), user.ID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "dashboard.admin", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
