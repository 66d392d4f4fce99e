// Package auth issues and verifies the HS256 access tokens handed out at login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingKey   = errors.New("token signing key is required")
)

// Claims carries the identity the middleware needs without a database hit.
type Claims struct {
	jwt.RegisteredClaims
	UserType string `json:"user_type"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type Identity struct {
	ID       string
	Username string
	Email    string
	UserType string

	// TokenID and ExpiresAt are set by Parse.
	TokenID   string
	ExpiresAt time.Time
}

type TokenIssuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrMissingKey
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenIssuer{
		key:    []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a token for identity and returns it with its expiry.
func (t *TokenIssuer) Issue(identity Identity) (string, time.Time, error) {
	issuedAt := t.now()
	expiresAt := issuedAt.Add(t.ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserType: identity.UserType,
		Username: identity.Username,
		Email:    identity.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, issuer and expiry and returns the identity.
func (t *TokenIssuer) Parse(token string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	identity := Identity{
		ID:       claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
		UserType: claims.UserType,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}
