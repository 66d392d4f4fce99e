package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedTokenKeyPrefix = keyPrefix + "revoked:jti:"

// Revocations is the shared token revocation list. Keys expire together with
// the token they block.
type Revocations struct {
	client redis.UniversalClient
}

func NewRevocations(client redis.UniversalClient) *Revocations {
	return &Revocations{client: client}
}

func (r *Revocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedTokenKeyPrefix+tokenID, "1", ttl).Err()
}

func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	_, err := r.client.Get(ctx, revokedTokenKeyPrefix+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
