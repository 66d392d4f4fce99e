package user

import (
	"context"
	"time"

	"membership-app-go/internal/domain/event"
)

type Repository interface {
	event.Sink
	Transaction(ctx context.Context, fn func(Repository) error) error
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	// GetUserByUsername matches case-insensitively.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context, filter ListFilter) ([]User, int64, error)
	SetVerified(ctx context.Context, ids []string, verified bool) (int64, error)
	SetActive(ctx context.Context, ids []string, active bool) (int64, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
