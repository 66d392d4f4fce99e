package common

import (
	"context"
	"time"

	"membership-app-go/internal/auth"
	notificationdomain "membership-app-go/internal/domain/notification"
	userdomain "membership-app-go/internal/domain/user"
	"membership-app-go/pkg/logger"
)

type TokenIssuer interface {
	Issue(identity auth.Identity) (string, time.Time, error)
}

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type Handlers struct {
	Users         *userdomain.Service
	Notifications *notificationdomain.Service
	Tokens        TokenIssuer
	Revocations   auth.Revocations
	Checks        map[string]HealthChecker
	log           logger.Logger
}

func New(users *userdomain.Service, notifications *notificationdomain.Service, tokens TokenIssuer, revocations auth.Revocations, checks map[string]HealthChecker, log logger.Logger) *Handlers {
	return &Handlers{
		Users:         users,
		Notifications: notifications,
		Tokens:        tokens,
		Revocations:   revocations,
		Checks:        checks,
		log:           log,
	}
}
