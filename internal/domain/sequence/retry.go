package sequence

import (
	"context"
	"errors"

	"membership-app-go/internal/domain/sentinel"
)

const DefaultAttempts = 3

// identifierFields are the columns an allocated identifier is written to. A
// unique violation on one of them means the identifier collided with a row
// written outside the counter and a fresh allocation will succeed.
var identifierFields = map[string]struct{}{
	"membership_id":      {},
	"receipt_number":     {},
	"certificate_number": {},
	"payment_reference":  {},
}

// Retryable reports whether err should trigger a fresh attempt of the whole
// operation that allocated an identifier.
func Retryable(err error) bool {
	if errors.Is(err, ErrAllocationConflict) {
		return true
	}
	if errors.Is(err, sentinel.ErrUniquenessViolation) {
		_, ok := identifierFields[sentinel.FieldOf(err)]
		return ok
	}
	return false
}

// Retry runs fn up to attempts times while it fails with a retryable error.
// fn must open its own transaction so every attempt allocates afresh.
func Retry(ctx context.Context, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn()
		if err == nil || !Retryable(err) {
			return err
		}
	}
	return err
}
