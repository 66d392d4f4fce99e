package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	domain "membership-app-go/internal/domain/user"
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

func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User) error {
	return pgerr.Translate(r.db.WithContext(ctx).Select("*").Create(user).Error)
}

func (r *PostgresRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return r.getUser(ctx, "id = ?", id)
}

func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getUser(ctx, "LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username)))
}

func (r *PostgresRepository) getUser(ctx context.Context, query string, arg string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context, filter domain.ListFilter) ([]domain.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.User{})
	if filter.UserType != "" {
		query = query.Where("user_type = ?", filter.UserType)
	}
	if filter.IsVerified != nil {
		query = query.Where("is_verified = ?", *filter.IsVerified)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(
			"username ILIKE ? OR email ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?",
			like, like, like, like,
		)
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

	var items []domain.User
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresRepository) SetVerified(ctx context.Context, ids []string, verified bool) (int64, error) {
	return r.setFlag(ctx, "is_verified", ids, verified)
}

func (r *PostgresRepository) SetActive(ctx context.Context, ids []string, active bool) (int64, error) {
	return r.setFlag(ctx, "is_active", ids, active)
}

// setFlag only touches rows whose flag differs, so the count reflects real
// changes.
func (r *PostgresRepository) setFlag(ctx context.Context, column string, ids []string, value bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id IN ? AND "+column+" <> ?", ids, value).
		Updates(map[string]interface{}{
			column:       value,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, pgerr.Translate(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("last_login_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
