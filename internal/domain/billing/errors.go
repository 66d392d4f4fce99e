package billing

import "errors"

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrInvalidType     = errors.New("invalid payment type")
	ErrInvalidStatus   = errors.New("invalid payment status")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidPhone    = errors.New("invalid phone number")
)
