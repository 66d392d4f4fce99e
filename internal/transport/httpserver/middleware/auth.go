package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"membership-app-go/internal/auth"
	"membership-app-go/internal/config"
	userdomain "membership-app-go/internal/domain/user"
	"membership-app-go/pkg/logger"
)

type TokenParser interface {
	Parse(token string) (auth.Identity, error)
}

// AccountLoader lets the middleware refuse tokens of deactivated accounts.
type AccountLoader interface {
	Get(ctx context.Context, id string) (*userdomain.User, error)
}

type JWTAuth struct {
	tokens      TokenParser
	revocations auth.Revocations
	accounts    AccountLoader
	log         logger.Logger
	skipAuth    bool
	mockUser    User
}

type contextKey int

const (
	userIDKey contextKey = iota
	userKey
)

type User struct {
	ID             string
	Username       string
	Email          string
	UserType       string
	TokenID        string
	TokenExpiresAt time.Time
}

func NewJWTAuth(cfg config.AuthConfig, tokens TokenParser, revocations auth.Revocations, accounts AccountLoader, log logger.Logger) *JWTAuth {
	return &JWTAuth{
		tokens:      tokens,
		revocations: revocations,
		accounts:    accounts,
		log:         log,
		skipAuth:    cfg.SkipAuth,
		mockUser: User{
			ID:       strings.TrimSpace(cfg.MockUserID),
			Username: strings.TrimSpace(cfg.MockUserName),
			Email:    strings.TrimSpace(cfg.MockUserEmail),
			UserType: strings.TrimSpace(cfg.MockUserType),
		},
	}
}

func (a *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.skipAuth {
			user := a.mockUser
			if user.ID == "" {
				writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth mock user id not configured")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
			return
		}

		if a.tokens == nil {
			writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth not configured")
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w)
			return
		}

		identity, err := a.tokens.Parse(token)
		if err != nil {
			unauthorized(w)
			return
		}

		if a.revocations != nil {
			revoked, err := a.revocations.IsRevoked(r.Context(), identity.TokenID)
			if err != nil {
				a.log.InternalError("auth.middleware: revocation check failed", err, "user_id", identity.ID)
				writeError(w, http.StatusServiceUnavailable, "auth_unavailable", "auth temporarily unavailable")
				return
			}
			if revoked {
				unauthorized(w)
				return
			}
		}

		if a.accounts != nil {
			account, err := a.accounts.Get(r.Context(), identity.ID)
			if err != nil {
				if !errors.Is(err, userdomain.ErrUserNotFound) {
					a.log.InternalError("auth.middleware: load account failed", err, "user_id", identity.ID)
				}
				unauthorized(w)
				return
			}
			if !account.IsActive {
				writeError(w, http.StatusForbidden, "account_inactive", "account is disabled")
				return
			}
			identity.UserType = account.UserType
		}

		user := User{
			ID:             identity.ID,
			Username:       identity.Username,
			Email:          identity.Email,
			UserType:       identity.UserType,
			TokenID:        identity.TokenID,
			TokenExpiresAt: identity.ExpiresAt,
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireUserTypes allows the request through only for the listed user
// types. It must run after JWTAuth.Middleware.
func RequireUserTypes(types ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(types))
	for _, userType := range types {
		allowed[userType] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}
			if _, ok := allowed[user.UserType]; !ok {
				writeError(w, http.StatusForbidden, "forbidden", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func WithUser(ctx context.Context, user User) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, userIDKey, user.ID)
}

func UserFromContext(ctx context.Context) (User, bool) {
	value := ctx.Value(userKey)
	user, ok := value.(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(userIDKey)
	userID, ok := value.(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
