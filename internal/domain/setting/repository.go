package setting

import (
	"context"

	"membership-app-go/internal/domain/event"
)

type Repository interface {
	event.Sink
	Transaction(ctx context.Context, fn func(Repository) error) error
	ListSettings(ctx context.Context, activeOnly bool) ([]Setting, error)
	GetSetting(ctx context.Context, key string) (*Setting, error)
	UpsertSetting(ctx context.Context, setting *Setting) error
}
