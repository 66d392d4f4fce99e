package members

import (
	"errors"
	"net/http"
	"strings"

	membershipdomain "membership-app-go/internal/domain/membership"
	commonhandler "membership-app-go/internal/transport/httpserver/handler/common"
)

const multipartOverhead = 1 << 20

// UploadOwnDocument accepts a multipart form with "file", "document_type"
// and an optional "description".
func (h *Handlers) UploadOwnDocument(w http.ResponseWriter, r *http.Request) {
	member, userID, ok := h.ownMember(w, r, "documents.upload")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file_too_large", membershipdomain.ErrFileTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "file is required")
		return
	}
	defer file.Close()

	document, err := h.Members.UploadDocument(r.Context(), membershipdomain.UploadDocumentInput{
		MemberID:    member.ID,
		ActorID:     userID,
		Type:        strings.TrimSpace(r.FormValue("document_type")),
		FileName:    header.Filename,
		Description: r.FormValue("description"),
		Size:        header.Size,
	}, file)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "documents.upload", err, "member_id", member.ID)
		return
	}
	writeJSON(w, http.StatusCreated, toDocumentResponse(*document))
}

func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDParam(w, r)
	if !ok {
		return
	}

	items, err := h.Members.ListDocuments(r.Context(), memberID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "documents.list", err, "member_id", memberID)
		return
	}

	response := make([]documentResponse, 0, len(items))
	for _, item := range items {
		response = append(response, toDocumentResponse(item))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) VerifyDocuments(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req idsRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	affected, err := h.Members.VerifyDocuments(r.Context(), commonhandler.UniqueIDs(req.IDs), user.ID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "documents.verify", err, "actor_id", user.ID)
		return
	}
	commonhandler.WriteAffected(w, affected)
}
