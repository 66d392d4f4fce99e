//go:build integration

package counter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"membership-app-go/internal/domain/sequence"
	"membership-app-go/internal/repository/postgres/pgtest"
)

func allocateInTx(ctx context.Context, db *gorm.DB, allocator *sequence.Allocator, scope string) (string, error) {
	var id string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = allocator.Allocate(ctx, New(tx, 5*time.Second), sequence.KindMembership, scope)
		return err
	})
	return id, err
}

func TestConcurrentAllocationsAreDistinctAndDense(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	allocator := sequence.NewAllocator()

	const workers = 40
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[string]struct{}{}
		errs []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := allocateInTx(ctx, db, allocator, "2024")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			seen[id] = struct{}{}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, seen, workers)
	for value := int64(1); value <= workers; value++ {
		assert.Contains(t, seen, sequence.Format(sequence.DefaultMembershipPrefix, "2024", value))
	}
}

func TestFirstAllocationsOfAYear(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	allocator := sequence.NewAllocator()

	first, err := allocateInTx(ctx, db, allocator, "2024")
	require.NoError(t, err)
	second, err := allocateInTx(ctx, db, allocator, "2024")
	require.NoError(t, err)
	otherYear, err := allocateInTx(ctx, db, allocator, "2025")
	require.NoError(t, err)

	assert.Equal(t, "KTS-2024-0001", first)
	assert.Equal(t, "KTS-2024-0002", second)
	assert.Equal(t, "KTS-2025-0001", otherYear)
}

func TestRolledBackAllocationIsReused(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	allocator := sequence.NewAllocator()
	errAbort := errors.New("abort")

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := allocator.Allocate(ctx, New(tx, time.Second), sequence.KindReceipt, "2024")
		require.NoError(t, err)
		assert.Equal(t, "RCT-2024-0001", id)
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	var id string
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = allocator.Allocate(ctx, New(tx, time.Second), sequence.KindReceipt, "2024")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "RCT-2024-0001", id)
}

func TestLockTimeoutSurfacesAsAllocationConflict(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	allocator := sequence.NewAllocator()

	_, err := allocateInTx(ctx, db, allocator, "2024")
	require.NoError(t, err)

	holder := db.WithContext(ctx).Begin()
	require.NoError(t, holder.Error)
	defer holder.Rollback()
	_, err = New(holder, 0).NextValue(ctx, sequence.KindMembership, "2024")
	require.NoError(t, err)

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := allocator.Allocate(ctx, New(tx, 200*time.Millisecond), sequence.KindMembership, "2024")
		return err
	})
	assert.ErrorIs(t, err, sequence.ErrAllocationConflict)
}

func TestSequenceWidensPastFourDigits(t *testing.T) {
	db := pgtest.New(t)
	ctx := context.Background()
	require.NoError(t, db.Exec(
		"INSERT INTO sequence_counters (kind, scope, value, updated_at) VALUES ('certificate', '2024', 9999, NOW())",
	).Error)

	var id string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = sequence.NewAllocator().Allocate(ctx, New(tx, time.Second), sequence.KindCertificate, "2024")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "CERT-2024-10000", id)
}
