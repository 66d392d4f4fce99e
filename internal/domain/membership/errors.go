package membership

import "errors"

var (
	ErrMemberNotFound        = errors.New("member not found")
	ErrCategoryNotFound      = errors.New("membership category not found")
	ErrCategoryInactive      = errors.New("membership category is not active")
	ErrCountryNotFound       = errors.New("country not found")
	ErrRegionMismatch        = errors.New("region does not belong to country")
	ErrRenewalNotFound       = errors.New("renewal not found")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrAlreadyRegistered     = errors.New("user already has a membership")
	ErrNotRenewable          = errors.New("membership cannot be renewed in its current status")
	ErrRenewalPending        = errors.New("a renewal is already awaiting payment")
	ErrPaymentNotCompleted   = errors.New("payment is not completed")
	ErrPaymentNotOwned       = errors.New("payment belongs to another member")
	ErrPaymentAlreadyLinked  = errors.New("payment is already linked to a renewal")
	ErrMembershipInactive    = errors.New("membership is not active")
	ErrUnknownAction         = errors.New("unknown lifecycle action")
	ErrInvalidDuration       = errors.New("duration must be at least one month")
	ErrInvalidStatus         = errors.New("invalid membership status")
	ErrInvalidGender         = errors.New("invalid gender")
	ErrInvalidDocumentType   = errors.New("invalid document type")
	ErrInvalidFileExtension  = errors.New("file extension not allowed")
	ErrFileTooLarge          = errors.New("file too large")
	ErrInvalidPhone          = errors.New("invalid phone number")
	ErrInvalidFee            = errors.New("fees cannot be negative")
	ErrMissingRequiredFields = errors.New("missing required fields")
)
