package location

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"membership-app-go/internal/domain/audit"
	"membership-app-go/internal/domain/event"
)

const (
	modelCountry = "Country"
	modelRegion  = "Region"
)

var countryCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) ListCountries(ctx context.Context, activeOnly bool) ([]Country, error) {
	items, err := s.repo.ListCountries(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Country{}
	}
	return items, nil
}

func (s *Service) GetCountry(ctx context.Context, id string) (*Country, error) {
	return s.repo.GetCountry(ctx, id)
}

func (s *Service) CreateCountry(ctx context.Context, input CountryInput) (*Country, error) {
	country := Country{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(input.Name),
		Code:     strings.ToUpper(strings.TrimSpace(input.Code)),
		IsActive: true,
	}
	if err := validateCountry(country); err != nil {
		return nil, err
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.CreateCountry(ctx, &country); err != nil {
			return err
		}
		return event.Dispatch(ctx, tx, s.now(), s.record(input.ActorID, audit.ActionCreate, modelCountry, country.ID, "Created country "+country.Name))
	})
	if err != nil {
		return nil, err
	}
	return &country, nil
}

func (s *Service) UpdateCountry(ctx context.Context, input CountryInput) (*Country, error) {
	var result Country
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		country, err := tx.GetCountry(ctx, input.ID)
		if err != nil {
			return err
		}
		country.Name = strings.TrimSpace(input.Name)
		country.Code = strings.ToUpper(strings.TrimSpace(input.Code))
		country.IsActive = input.IsActive
		if err := validateCountry(*country); err != nil {
			return err
		}
		if err := tx.UpdateCountry(ctx, country); err != nil {
			return err
		}
		result = *country
		return event.Dispatch(ctx, tx, s.now(), s.record(input.ActorID, audit.ActionUpdate, modelCountry, country.ID, "Updated country "+country.Name))
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) DeleteCountry(ctx context.Context, id, actorID string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		country, err := tx.GetCountry(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteCountry(ctx, id); err != nil {
			return err
		}
		return event.Dispatch(ctx, tx, s.now(), s.record(actorID, audit.ActionDelete, modelCountry, country.ID, "Deleted country "+country.Name))
	})
}

func (s *Service) ListRegions(ctx context.Context, countryID string, activeOnly bool) ([]Region, error) {
	items, err := s.repo.ListRegions(ctx, countryID, activeOnly)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Region{}
	}
	return items, nil
}

func (s *Service) CreateRegion(ctx context.Context, input RegionInput) (*Region, error) {
	region := Region{
		ID:        uuid.NewString(),
		CountryID: strings.TrimSpace(input.CountryID),
		Name:      strings.TrimSpace(input.Name),
		Code:      strings.ToUpper(strings.TrimSpace(input.Code)),
		IsActive:  true,
	}
	if region.CountryID == "" || region.Name == "" {
		return nil, ErrMissingRequiredFields
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		country, err := tx.GetCountry(ctx, region.CountryID)
		if err != nil {
			return err
		}
		if err := tx.CreateRegion(ctx, &region); err != nil {
			return err
		}
		description := fmt.Sprintf("Created region %s in %s", region.Name, country.Name)
		return event.Dispatch(ctx, tx, s.now(), s.record(input.ActorID, audit.ActionCreate, modelRegion, region.ID, description))
	})
	if err != nil {
		return nil, err
	}
	return &region, nil
}

func (s *Service) UpdateRegion(ctx context.Context, input RegionInput) (*Region, error) {
	var result Region
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		region, err := tx.GetRegion(ctx, input.ID)
		if err != nil {
			return err
		}
		region.Name = strings.TrimSpace(input.Name)
		region.Code = strings.ToUpper(strings.TrimSpace(input.Code))
		region.IsActive = input.IsActive
		if region.Name == "" {
			return ErrMissingRequiredFields
		}
		if err := tx.UpdateRegion(ctx, region); err != nil {
			return err
		}
		result = *region
		return event.Dispatch(ctx, tx, s.now(), s.record(input.ActorID, audit.ActionUpdate, modelRegion, region.ID, "Updated region "+region.Name))
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) DeleteRegion(ctx context.Context, id, actorID string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		region, err := tx.GetRegion(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteRegion(ctx, id); err != nil {
			return err
		}
		return event.Dispatch(ctx, tx, s.now(), s.record(actorID, audit.ActionDelete, modelRegion, region.ID, "Deleted region "+region.Name))
	})
}

func (s *Service) record(actorID, action, model, objectID, description string) event.Audit {
	return event.Audit{
		ActorID:     actorID,
		Action:      action,
		ModelName:   model,
		ObjectID:    objectID,
		Description: description,
	}
}

func validateCountry(country Country) error {
	if country.Name == "" || country.Code == "" {
		return ErrMissingRequiredFields
	}
	if !countryCodePattern.MatchString(country.Code) {
		return ErrInvalidCountryCode
	}
	return nil
}
