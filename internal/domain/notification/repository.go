package notification

import (
	"context"
	"time"
)

type Repository interface {
	ListNotifications(ctx context.Context, filter ListFilter) ([]Notification, int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, recipientID string, ids []string, at time.Time) (int64, error)
	MarkSentEmail(ctx context.Context, ids []string) (int64, error)
}
