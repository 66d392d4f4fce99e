package dashboard

import (
	"context"
	"time"
)

// Cache stores encoded dashboard aggregates. Misses are (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (noopCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (noopCache) Delete(context.Context, ...string) error {
	return nil
}
