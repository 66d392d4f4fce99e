package auth

import (
	"context"
	"sync"
	"time"
)

// Revocations remembers tokens that were logged out before they expired.
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevocations is the single-instance Revocations used without Redis.
type MemoryRevocations struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	now    func() time.Time
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{
		tokens: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (m *MemoryRevocations) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}

	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, expiresAt := range m.tokens {
		if !expiresAt.After(now) {
			delete(m.tokens, id)
		}
	}
	m.tokens[tokenID] = now.Add(ttl)
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	expiresAt, ok := m.tokens[tokenID]
	if !ok {
		return false, nil
	}
	if !expiresAt.After(m.now()) {
		delete(m.tokens, tokenID)
		return false, nil
	}
	return true, nil
}
