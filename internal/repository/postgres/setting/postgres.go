package setting

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "membership-app-go/internal/domain/setting"
	"membership-app-go/internal/repository/postgres/eventstore"
	"membership-app-go/internal/repository/postgres/pgerr"
)

type PostgresRepository struct {
	*eventstore.Store
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{Store: eventstore.New(db), db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(domain.Repository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewPostgres(tx))
	})
	return pgerr.Translate(err)
}

func (r *PostgresRepository) ListSettings(ctx context.Context, activeOnly bool) ([]domain.Setting, error) {
	query := r.db.WithContext(ctx).Order("key asc")
	if activeOnly {
		query = query.Where("is_active")
	}
	var items []domain.Setting
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) GetSetting(ctx context.Context, key string) (*domain.Setting, error) {
	var setting domain.Setting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSettingNotFound
		}
		return nil, err
	}
	return &setting, nil
}

func (r *PostgresRepository) UpsertSetting(ctx context.Context, setting *domain.Setting) error {
	updates := map[string]interface{}{
		"value":       setting.Value,
		"description": setting.Description,
		"is_active":   setting.IsActive,
		"updated_by":  setting.UpdatedBy,
		"updated_at":  setting.UpdatedAt,
	}

	err := r.db.WithContext(ctx).
		Select("*").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(updates),
		}).
		Create(setting).Error
	return pgerr.Translate(err)
}
