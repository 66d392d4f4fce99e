package membership

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"membership-app-go/internal/domain/audit"
	"membership-app-go/internal/domain/event"
)

const modelCategory = "MembershipCategory"

func (s *Service) ListCategories(ctx context.Context, activeOnly bool) ([]Category, error) {
	items, err := s.repo.ListCategories(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Category{}
	}
	return items, nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (*Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*Category, error) {
	category := Category{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(input.Name),
		Description:     strings.TrimSpace(input.Description),
		RegistrationFee: input.RegistrationFee,
		AnnualFee:       input.AnnualFee,
		Benefits:        strings.TrimSpace(input.Benefits),
		DurationMonths:  input.DurationMonths,
		IsActive:        true,
	}
	if category.DurationMonths == 0 {
		category.DurationMonths = DefaultDurationMonths
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.CreateCategory(ctx, &category); err != nil {
			return err
		}
		return event.Dispatch(ctx, tx, s.now(), categoryAudit(input.ActorID, audit.ActionCreate, category, "Created"))
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, input UpdateCategoryInput) (*Category, error) {
	var result Category
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		category, err := tx.GetCategory(ctx, input.ID)
		if err != nil {
			return err
		}

		category.Name = strings.TrimSpace(input.Name)
		category.Description = strings.TrimSpace(input.Description)
		category.RegistrationFee = input.RegistrationFee
		category.AnnualFee = input.AnnualFee
		category.Benefits = strings.TrimSpace(input.Benefits)
		category.DurationMonths = input.DurationMonths
		category.IsActive = input.IsActive
		if err := validateCategory(*category); err != nil {
			return err
		}

		if err := tx.UpdateCategory(ctx, category); err != nil {
			return err
		}
		result = *category
		return event.Dispatch(ctx, tx, s.now(), categoryAudit(input.ActorID, audit.ActionUpdate, *category, "Updated"))
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteCategory fails with sentinel.ErrReferentialIntegrity while members
// still reference the category.
func (s *Service) DeleteCategory(ctx context.Context, id, actorID string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		category, err := tx.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteCategory(ctx, id); err != nil {
			return err
		}
		return event.Dispatch(ctx, tx, s.now(), categoryAudit(actorID, audit.ActionDelete, *category, "Deleted"))
	})
}

func validateCategory(category Category) error {
	if category.Name == "" {
		return ErrMissingRequiredFields
	}
	if category.RegistrationFee < 0 || category.AnnualFee < 0 {
		return ErrInvalidFee
	}
	if category.DurationMonths <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

func categoryAudit(actorID, action string, category Category, verb string) event.Audit {
	return event.Audit{
		ActorID:     actorID,
		Action:      action,
		ModelName:   modelCategory,
		ObjectID:    category.ID,
		Description: fmt.Sprintf("%s membership category %s", verb, category.Name),
	}
}
