package members

import (
	"net/http"

	commonhandler "membership-app-go/internal/transport/httpserver/handler/common"
)

func (h *Handlers) IssueCertificate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	memberID, ok := memberIDParam(w, r)
	if !ok {
		return
	}

	certificate, err := h.Members.IssueCertificate(r.Context(), memberID, user.ID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "certificates.issue", err, "member_id", memberID, "actor_id", user.ID)
		return
	}
	writeJSON(w, http.StatusCreated, toCertificateResponse(*certificate))
}

func (h *Handlers) ListCertificates(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDParam(w, r)
	if !ok {
		return
	}

	items, err := h.Members.ListCertificates(r.Context(), memberID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "certificates.list", err, "member_id", memberID)
		return
	}

	response := make([]certificateResponse, 0, len(items))
	for _, item := range items {
		response = append(response, toCertificateResponse(item))
	}
	writeJSON(w, http.StatusOK, response)
}
