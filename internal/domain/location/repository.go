package location

import (
	"context"

	"membership-app-go/internal/domain/event"
)

type Repository interface {
	event.Sink
	Transaction(ctx context.Context, fn func(Repository) error) error

	ListCountries(ctx context.Context, activeOnly bool) ([]Country, error)
	GetCountry(ctx context.Context, id string) (*Country, error)
	CreateCountry(ctx context.Context, country *Country) error
	UpdateCountry(ctx context.Context, country *Country) error
	// DeleteCountry removes the country and its regions. It fails with
	// sentinel.ErrReferentialIntegrity while members reference either.
	DeleteCountry(ctx context.Context, id string) error

	ListRegions(ctx context.Context, countryID string, activeOnly bool) ([]Region, error)
	GetRegion(ctx context.Context, id string) (*Region, error)
	CreateRegion(ctx context.Context, region *Region) error
	UpdateRegion(ctx context.Context, region *Region) error
	DeleteRegion(ctx context.Context, id string) error
}
