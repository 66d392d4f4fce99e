package admin

import (
	"net/http"
	"strings"
	"time"

	auditdomain "membership-app-go/internal/domain/audit"
	commonhandler "membership-app-go/internal/transport/httpserver/handler/common"
)

type auditResponse struct {
	ID          string         `json:"id"`
	ActorID     *string        `json:"actor_id,omitempty"`
	Action      string         `json:"action"`
	ModelName   string         `json:"model_name"`
	ObjectID    string         `json:"object_id"`
	Description string         `json:"description"`
	IPAddress   *string        `json:"ip_address,omitempty"`
	UserAgent   string         `json:"user_agent,omitempty"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}

func toAuditResponse(entry auditdomain.Entry) auditResponse {
	metadata := map[string]any(entry.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	return auditResponse{
		ID:          entry.ID,
		ActorID:     entry.ActorID,
		Action:      entry.Action,
		ModelName:   entry.ModelName,
		ObjectID:    entry.ObjectID,
		Description: entry.Description,
		IPAddress:   entry.IPAddress,
		UserAgent:   entry.UserAgent,
		Metadata:    metadata,
		CreatedAt:   entry.CreatedAt,
	}
}

func (h *Handlers) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset, err := commonhandler.Page(query.Get("limit"), query.Get("offset"), auditdomain.DefaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	items, total, err := h.Audit.List(r.Context(), auditdomain.ListFilter{
		Action:    query.Get("action"),
		ModelName: query.Get("model_name"),
		ObjectID:  strings.TrimSpace(query.Get("object_id")),
		ActorID:   strings.TrimSpace(query.Get("actor_id")),
		Search:    query.Get("search"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "audit.list", err)
		return
	}

	response := make([]auditResponse, 0, len(items))
	for _, item := range items {
		response = append(response, toAuditResponse(item))
	}
	commonhandler.WriteList(w, response, total, limit, offset)
}
