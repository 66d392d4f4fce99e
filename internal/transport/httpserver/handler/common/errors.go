package common

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"membership-app-go/internal/domain/audit"
	"membership-app-go/internal/domain/billing"
	"membership-app-go/internal/domain/location"
	"membership-app-go/internal/domain/membership"
	"membership-app-go/internal/domain/notification"
	"membership-app-go/internal/domain/sentinel"
	"membership-app-go/internal/domain/sequence"
	"membership-app-go/internal/domain/setting"
	"membership-app-go/internal/domain/user"
	"membership-app-go/pkg/logger"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{membership.ErrMemberNotFound, http.StatusNotFound, "member_not_found"},
	{billing.ErrMemberNotFound, http.StatusNotFound, "member_not_found"},
	{membership.ErrCategoryNotFound, http.StatusNotFound, "category_not_found"},
	{membership.ErrCountryNotFound, http.StatusNotFound, "country_not_found"},
	{membership.ErrRenewalNotFound, http.StatusNotFound, "renewal_not_found"},
	{membership.ErrDocumentNotFound, http.StatusNotFound, "document_not_found"},
	{billing.ErrPaymentNotFound, http.StatusNotFound, "payment_not_found"},
	{billing.ErrReceiptNotFound, http.StatusNotFound, "receipt_not_found"},
	{location.ErrCountryNotFound, http.StatusNotFound, "country_not_found"},
	{location.ErrRegionNotFound, http.StatusNotFound, "region_not_found"},
	{setting.ErrSettingNotFound, http.StatusNotFound, "setting_not_found"},
	{user.ErrUserNotFound, http.StatusNotFound, "user_not_found"},

	{user.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{user.ErrInactiveUser, http.StatusForbidden, "account_inactive"},

	{sentinel.ErrUniquenessViolation, http.StatusConflict, "already_exists"},
	{sentinel.ErrReferentialIntegrity, http.StatusConflict, "in_use"},
	{membership.ErrAlreadyRegistered, http.StatusConflict, "already_registered"},
	{membership.ErrNotRenewable, http.StatusConflict, "not_renewable"},
	{membership.ErrRenewalPending, http.StatusConflict, "renewal_pending"},
	{membership.ErrPaymentNotCompleted, http.StatusConflict, "payment_not_completed"},
	{membership.ErrPaymentNotOwned, http.StatusConflict, "payment_not_owned"},
	{membership.ErrPaymentAlreadyLinked, http.StatusConflict, "payment_already_linked"},
	{membership.ErrMembershipInactive, http.StatusConflict, "membership_inactive"},
	{sequence.ErrAllocationConflict, http.StatusServiceUnavailable, "allocation_conflict"},

	{membership.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "file_too_large"},

	{membership.ErrCategoryInactive, http.StatusBadRequest, "invalid_request"},
	{membership.ErrRegionMismatch, http.StatusBadRequest, "invalid_request"},
	{membership.ErrInvalidDuration, http.StatusBadRequest, "invalid_request"},
	{membership.ErrInvalidStatus, http.StatusBadRequest, "invalid_request"},
	{membership.ErrInvalidGender, http.StatusBadRequest, "invalid_request"},
	{membership.ErrInvalidDocumentType, http.StatusBadRequest, "invalid_request"},
	{membership.ErrInvalidFileExtension, http.StatusBadRequest, "invalid_request"},
	{membership.ErrInvalidPhone, http.StatusBadRequest, "invalid_request"},
	{membership.ErrInvalidFee, http.StatusBadRequest, "invalid_request"},
	{membership.ErrMissingRequiredFields, http.StatusBadRequest, "invalid_request"},
	{billing.ErrInvalidAmount, http.StatusBadRequest, "invalid_request"},
	{billing.ErrInvalidType, http.StatusBadRequest, "invalid_request"},
	{billing.ErrInvalidStatus, http.StatusBadRequest, "invalid_request"},
	{billing.ErrInvalidCurrency, http.StatusBadRequest, "invalid_request"},
	{billing.ErrInvalidPhone, http.StatusBadRequest, "invalid_request"},
	{location.ErrInvalidCountryCode, http.StatusBadRequest, "invalid_request"},
	{location.ErrMissingRequiredFields, http.StatusBadRequest, "invalid_request"},
	{setting.ErrInvalidKey, http.StatusBadRequest, "invalid_request"},
	{user.ErrInvalidUserType, http.StatusBadRequest, "invalid_request"},
	{user.ErrInvalidEmail, http.StatusBadRequest, "invalid_request"},
	{user.ErrInvalidPhone, http.StatusBadRequest, "invalid_request"},
	{user.ErrWeakPassword, http.StatusBadRequest, "invalid_request"},
	{user.ErrMissingRequiredFields, http.StatusBadRequest, "invalid_request"},
	{audit.ErrInvalidAction, http.StatusBadRequest, "invalid_request"},
	{notification.ErrRecipientRequired, http.StatusBadRequest, "invalid_request"},
}

// WriteDomainError maps err onto the error envelope. Known domain errors are
// logged as business errors, anything else as an internal error.
func WriteDomainError(w http.ResponseWriter, log logger.Logger, operation string, err error, args ...any) {
	for _, mapping := range errorMappings {
		if !errors.Is(err, mapping.err) {
			continue
		}
		log.BusinessError(operation+": request refused", err, args...)
		body := errorBody{Code: mapping.code, Message: mapping.err.Error()}
		if field := sentinel.FieldOf(err); field != "" {
			body.Fields = map[string]string{field: mapping.err.Error()}
		}
		writeJSON(w, mapping.status, errorEnvelope{Error: body})
		return
	}

	log.InternalError(operation+": failed", err, args...)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

// WriteValidationError renders ozzo validation errors field by field.
func WriteValidationError(w http.ResponseWriter, err error) {
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	fields := make(map[string]string, len(fieldErrs))
	for field, fieldErr := range fieldErrs {
		if fieldErr != nil {
			fields[field] = fieldErr.Error()
		}
	}
	writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorBody{
		Code:    "validation_failed",
		Message: "request validation failed",
		Fields:  fields,
	}})
}

// Validatable is implemented by request structs.
type Validatable interface {
	Validate() error
}

// DecodeAndValidate decodes the JSON body into req and validates it. It writes
// the error response itself and reports whether the handler may continue.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, req Validatable) bool {
	if err := decodeJSON(r, req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return false
	}
	if err := req.Validate(); err != nil {
		WriteValidationError(w, err)
		return false
	}
	return true
}
