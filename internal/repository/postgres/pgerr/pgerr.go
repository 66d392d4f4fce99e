// Package pgerr maps Postgres driver errors onto domain sentinels.
package pgerr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"membership-app-go/internal/domain/sentinel"
	"membership-app-go/internal/domain/sequence"
)

const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

var constraintFields = map[string]string{
	"users_username_key":                  "username",
	"users_email_key":                     "email",
	"users_phone_number_key":              "phone_number",
	"countries_name_key":                  "name",
	"countries_code_key":                  "code",
	"regions_country_name_key":            "name",
	"membership_categories_name_key":      "name",
	"members_user_id_key":                 "user_id",
	"members_membership_id_key":           "membership_id",
	"members_national_id_key":             "national_id",
	"payments_payment_reference_key":      "payment_reference",
	"payment_receipts_payment_id_key":     "payment_id",
	"payment_receipts_receipt_number_key": "receipt_number",
	"membership_renewals_payment_id_key":  "payment_id",
	"membership_certificates_number_key":  "certificate_number",
}

// Translate returns err unchanged unless it is a Postgres error with a code
// the domain cares about. Lock timeouts, serialization failures and deadlocks
// become sequence.ErrAllocationConflict so callers retry the whole operation.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		return sentinel.Unique(fieldFor(pgErr))
	case codeForeignKeyViolation:
		return sentinel.Referenced(pgErr.TableName)
	case codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %s", sequence.ErrAllocationConflict, pgErr.Message)
	default:
		return err
	}
}

func fieldFor(pgErr *pgconn.PgError) string {
	if field, ok := constraintFields[pgErr.ConstraintName]; ok {
		return field
	}
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	return pgErr.ConstraintName
}
