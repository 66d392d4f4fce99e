// Package event carries side effects of domain operations (audit entries and
// user notifications) from pure transition logic to storage. Every write of
// an audit log or notification goes through Dispatch.
package event

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"membership-app-go/internal/domain/audit"
	"membership-app-go/internal/domain/notification"
)

type Event interface {
	event()
}

// Audit becomes one audit_logs row.
type Audit struct {
	ActorID     string
	Action      string
	ModelName   string
	ObjectID    string
	Description string
	Metadata    map[string]any
}

// Notify becomes one notifications row for RecipientID.
type Notify struct {
	RecipientID string
	Type        string
	Title       string
	Message     string
}

func (Audit) event()  {}
func (Notify) event() {}

// Sink persists dispatched events. Repositories bound to a transaction
// implement it so events commit or roll back with the change they describe.
type Sink interface {
	AppendAuditLog(ctx context.Context, entry *audit.Entry) error
	CreateNotification(ctx context.Context, item *notification.Notification) error
}

func Dispatch(ctx context.Context, sink Sink, now time.Time, events ...Event) error {
	meta := RequestMetaFrom(ctx)
	now = now.UTC()

	for _, ev := range events {
		switch e := ev.(type) {
		case Audit:
			if err := sink.AppendAuditLog(ctx, newEntry(e, meta, now)); err != nil {
				return fmt.Errorf("append audit log: %w", err)
			}
		case Notify:
			item := &notification.Notification{
				ID:          uuid.NewString(),
				RecipientID: e.RecipientID,
				Type:        e.Type,
				Title:       e.Title,
				Message:     e.Message,
				CreatedAt:   now,
			}
			if err := sink.CreateNotification(ctx, item); err != nil {
				return fmt.Errorf("create notification: %w", err)
			}
		default:
			return fmt.Errorf("unsupported event %T", ev)
		}
	}
	return nil
}

func newEntry(e Audit, meta RequestMeta, now time.Time) *audit.Entry {
	metadata := datatypes.JSONMap{}
	for key, value := range e.Metadata {
		metadata[key] = value
	}
	if meta.RequestID != "" {
		metadata["request_id"] = meta.RequestID
	}

	entry := &audit.Entry{
		ID:          uuid.NewString(),
		Action:      e.Action,
		ModelName:   e.ModelName,
		ObjectID:    e.ObjectID,
		Description: e.Description,
		UserAgent:   meta.UserAgent,
		Metadata:    metadata,
		CreatedAt:   now,
	}
	if e.ActorID != "" {
		actor := e.ActorID
		entry.ActorID = &actor
	}
	if meta.IPAddress != "" {
		ip := meta.IPAddress
		entry.IPAddress = &ip
	}
	return entry
}
