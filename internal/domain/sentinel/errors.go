// Package sentinel holds the storage-level errors shared by every domain
// package. Repositories translate driver errors into these values so services
// and handlers never look at Postgres error codes.
package sentinel

import (
	"errors"
	"fmt"
)

var (
	ErrUniquenessViolation  = errors.New("uniqueness violation")
	ErrReferentialIntegrity = errors.New("referenced by other records")
)

// FieldError attaches the offending field to a sentinel error.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Err.Error())
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func Unique(field string) error {
	return &FieldError{Field: field, Err: ErrUniquenessViolation}
}

func Referenced(field string) error {
	return &FieldError{Field: field, Err: ErrReferentialIntegrity}
}

// FieldOf returns the field recorded on err, or "" when none was recorded.
func FieldOf(err error) string {
	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		return fieldErr.Field
	}
	return ""
}
