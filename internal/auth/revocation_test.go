package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevocations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	revocations := NewMemoryRevocations()
	revocations.now = func() time.Time { return now }

	revoked, err := revocations.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, revocations.Revoke(ctx, "jti-1", time.Hour))
	revoked, err = revocations.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(time.Hour)
	revoked, err = revocations.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryRevocationsIgnoresEmptyAndExpired(t *testing.T) {
	ctx := context.Background()
	revocations := NewMemoryRevocations()

	require.NoError(t, revocations.Revoke(ctx, "", time.Hour))
	require.NoError(t, revocations.Revoke(ctx, "jti-2", 0))

	assert.Empty(t, revocations.tokens)
	revoked, err := revocations.IsRevoked(ctx, "")
	require.NoError(t, err)
	assert.False(t, revoked)
}
