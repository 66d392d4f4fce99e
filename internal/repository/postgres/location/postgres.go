package location

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domain "membership-app-go/internal/domain/location"
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

func (r *PostgresRepository) ListCountries(ctx context.Context, activeOnly bool) ([]domain.Country, error) {
	query := r.db.WithContext(ctx).Order("name asc")
	if activeOnly {
		query = query.Where("is_active")
	}
	var items []domain.Country
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) GetCountry(ctx context.Context, id string) (*domain.Country, error) {
	var country domain.Country
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&country).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCountryNotFound
		}
		return nil, err
	}
	return &country, nil
}

func (r *PostgresRepository) CreateCountry(ctx context.Context, country *domain.Country) error {
	return pgerr.Translate(r.db.WithContext(ctx).Select("*").Create(country).Error)
}

func (r *PostgresRepository) UpdateCountry(ctx context.Context, country *domain.Country) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Country{}).
		Where("id = ?", country.ID).
		Updates(map[string]interface{}{
			"name":      country.Name,
			"code":      country.Code,
			"is_active": country.IsActive,
		})
	if result.Error != nil {
		return pgerr.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrCountryNotFound
	}
	return nil
}

// DeleteCountry cascades to regions. A member referencing the country or any
// of its regions makes the foreign key reject the delete.
func (r *PostgresRepository) DeleteCountry(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Country{}, "id = ?", id)
	if result.Error != nil {
		return pgerr.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrCountryNotFound
	}
	return nil
}

func (r *PostgresRepository) ListRegions(ctx context.Context, countryID string, activeOnly bool) ([]domain.Region, error) {
	query := r.db.WithContext(ctx).Order("name asc")
	if countryID != "" {
		query = query.Where("country_id = ?", countryID)
	}
	if activeOnly {
		query = query.Where("is_active")
	}
	var items []domain.Region
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) GetRegion(ctx context.Context, id string) (*domain.Region, error) {
	var region domain.Region
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&region).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRegionNotFound
		}
		return nil, err
	}
	return &region, nil
}

func (r *PostgresRepository) CreateRegion(ctx context.Context, region *domain.Region) error {
	return pgerr.Translate(r.db.WithContext(ctx).Select("*").Create(region).Error)
}

func (r *PostgresRepository) UpdateRegion(ctx context.Context, region *domain.Region) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Region{}).
		Where("id = ?", region.ID).
		Updates(map[string]interface{}{
			"country_id": region.CountryID,
			"name":       region.Name,
			"code":       region.Code,
			"is_active":  region.IsActive,
		})
	if result.Error != nil {
		return pgerr.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrRegionNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteRegion(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Region{}, "id = ?", id)
	if result.Error != nil {
		return pgerr.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrRegionNotFound
	}
	return nil
}
