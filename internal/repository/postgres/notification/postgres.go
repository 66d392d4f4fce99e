package notification

import (
	"context"
	"time"

	"gorm.io/gorm"

	domain "membership-app-go/internal/domain/notification"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListNotifications(ctx context.Context, filter domain.ListFilter) ([]domain.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Notification{})
	if filter.RecipientID != "" {
		query = query.Where("recipient_id = ?", filter.RecipientID)
	}
	if filter.UnreadOnly {
		query = query.Where("NOT is_read")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var items []domain.Notification
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("recipient_id = ? AND NOT is_read", recipientID).
		Count(&count).Error
	return count, err
}

func (r *PostgresRepository) MarkRead(ctx context.Context, recipientID string, ids []string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("recipient_id = ? AND id IN ? AND NOT is_read", recipientID, ids).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *PostgresRepository) MarkSentEmail(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id IN ? AND NOT is_sent_email", ids).
		Update("is_sent_email", true)
	return result.RowsAffected, result.Error
}
