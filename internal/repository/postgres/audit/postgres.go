package audit

import (
	"context"

	"gorm.io/gorm"

	domain "membership-app-go/internal/domain/audit"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListEntries(ctx context.Context, filter domain.ListFilter) ([]domain.Entry, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Entry{})
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ModelName != "" {
		query = query.Where("model_name = ?", filter.ModelName)
	}
	if filter.ObjectID != "" {
		query = query.Where("object_id = ?", filter.ObjectID)
	}
	if filter.ActorID != "" {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("description ILIKE ? OR object_id ILIKE ?", like, like)
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

	var items []domain.Entry
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
