package common

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	notificationdomain "membership-app-go/internal/domain/notification"
	"membership-app-go/internal/transport/httpserver/middleware"
)

type NotificationResponse struct {
	ID        string     `json:"id"`
	Type      string     `json:"notification_type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

type notificationListResponse struct {
	Items  []NotificationResponse `json:"items"`
	Total  int64                  `json:"total"`
	Unread int64                  `json:"unread"`
}

type markReadRequest struct {
	IDs []string `json:"ids"`
}

func (r markReadRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDs, validation.Required, validation.Length(1, 200)),
	)
}

func ToNotificationResponse(item notificationdomain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        item.ID,
		Type:      item.Type,
		Title:     item.Title,
		Message:   item.Message,
		IsRead:    item.IsRead,
		CreatedAt: item.CreatedAt,
		ReadAt:    item.ReadAt,
	}
}

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	query := r.URL.Query()
	limit, offset, err := Page(query.Get("limit"), query.Get("offset"), notificationdomain.DefaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	unreadOnly, err := ParseBoolParam(query.Get("unread"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid unread flag")
		return
	}

	filter := notificationdomain.ListFilter{
		RecipientID: user.ID,
		UnreadOnly:  unreadOnly != nil && *unreadOnly,
		Limit:       limit,
		Offset:      offset,
	}
	items, total, err := h.Notifications.ListForRecipient(r.Context(), filter)
	if err != nil {
		WriteDomainError(w, h.log, "notifications.list", err, "user_id", user.ID)
		return
	}
	unread, err := h.Notifications.CountUnread(r.Context(), user.ID)
	if err != nil {
		WriteDomainError(w, h.log, "notifications.list", err, "user_id", user.ID)
		return
	}

	response := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		response = append(response, ToNotificationResponse(item))
	}
	writeJSON(w, http.StatusOK, notificationListResponse{Items: response, Total: total, Unread: unread})
}

func (h *Handlers) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req markReadRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	affected, err := h.Notifications.MarkRead(r.Context(), user.ID, UniqueIDs(req.IDs))
	if err != nil {
		WriteDomainError(w, h.log, "notifications.mark_read", err, "user_id", user.ID)
		return
	}
	WriteAffected(w, affected)
}
