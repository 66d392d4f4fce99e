package setting

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"membership-app-go/internal/domain/audit"
	"membership-app-go/internal/domain/event"
)

const modelSetting = "SystemSetting"

var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_.]{0,99}$`)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]Setting, error) {
	items, err := s.repo.ListSettings(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Setting{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, key string) (*Setting, error) {
	return s.repo.GetSetting(ctx, normalizeKey(key))
}

// Upsert creates or replaces a setting. The audit action is create for a new
// key and update otherwise.
func (s *Service) Upsert(ctx context.Context, input UpsertInput) (*Setting, error) {
	key := normalizeKey(input.Key)
	if !keyPattern.MatchString(key) {
		return nil, ErrInvalidKey
	}

	var result Setting
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		action := audit.ActionUpdate
		current, err := tx.GetSetting(ctx, key)
		switch {
		case errors.Is(err, ErrSettingNotFound):
			action = audit.ActionCreate
			current = &Setting{Key: key, IsActive: true}
		case err != nil:
			return err
		}

		previous := current.Value
		current.Value = input.Value
		if description := strings.TrimSpace(input.Description); description != "" {
			current.Description = description
		}
		if input.IsActive != nil {
			current.IsActive = *input.IsActive
		}
		current.UpdatedAt = s.now().UTC()
		current.UpdatedBy = nil
		if input.ActorID != "" {
			actor := input.ActorID
			current.UpdatedBy = &actor
		}

		if err := tx.UpsertSetting(ctx, current); err != nil {
			return err
		}
		result = *current

		metadata := map[string]any{"value": current.Value}
		if action == audit.ActionUpdate {
			metadata["previous_value"] = previous
		}
		return event.Dispatch(ctx, tx, current.UpdatedAt, event.Audit{
			ActorID:     input.ActorID,
			Action:      action,
			ModelName:   modelSetting,
			ObjectID:    key,
			Description: fmt.Sprintf("Set %s", key),
			Metadata:    metadata,
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
