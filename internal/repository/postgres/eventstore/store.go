// Package eventstore writes dispatched audit entries and notifications. Domain
// repositories embed Store so events share the caller's transaction.
package eventstore

import (
	"context"

	"gorm.io/gorm"

	"membership-app-go/internal/domain/audit"
	"membership-app-go/internal/domain/notification"
	"membership-app-go/internal/repository/postgres/pgerr"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) AppendAuditLog(ctx context.Context, entry *audit.Entry) error {
	return pgerr.Translate(s.db.WithContext(ctx).Create(entry).Error)
}

func (s *Store) CreateNotification(ctx context.Context, item *notification.Notification) error {
	return pgerr.Translate(s.db.WithContext(ctx).Create(item).Error)
}
