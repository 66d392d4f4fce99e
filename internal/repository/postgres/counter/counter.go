// Package counter backs sequence.Counter with the sequence_counters table.
package counter

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"membership-app-go/internal/domain/sequence"
	"membership-app-go/internal/repository/postgres/pgerr"
)

// The upsert takes the row lock on (kind, scope) and holds it until the
// surrounding transaction ends, so concurrent allocators queue on it and a
// rollback hands the number back.
const nextValueSQL = `
INSERT INTO sequence_counters (kind, scope, value, updated_at)
VALUES (?, ?, 1, NOW())
ON CONFLICT (kind, scope)
DO UPDATE SET value = sequence_counters.value + 1, updated_at = NOW()
RETURNING value`

type Counter struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// New binds a counter to db, which must be a transaction handle when
// NextValue is called.
func New(db *gorm.DB, lockTimeout time.Duration) *Counter {
	return &Counter{db: db, lockTimeout: lockTimeout}
}

func (c *Counter) NextValue(ctx context.Context, kind sequence.Kind, scope string) (int64, error) {
	db := c.db.WithContext(ctx)

	if c.lockTimeout > 0 {
		timeout := fmt.Sprintf("%dms", c.lockTimeout.Milliseconds())
		if err := db.Exec("SELECT set_config('lock_timeout', ?, true)", timeout).Error; err != nil {
			return 0, pgerr.Translate(err)
		}
	}

	var value int64
	if err := db.Raw(nextValueSQL, string(kind), scope).Scan(&value).Error; err != nil {
		return 0, pgerr.Translate(err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%w: counter %s/%s returned %d", sequence.ErrInvalidSequence, kind, scope, value)
	}
	return value, nil
}
