package location

import "errors"

var (
	ErrCountryNotFound       = errors.New("country not found")
	ErrRegionNotFound        = errors.New("region not found")
	ErrInvalidCountryCode    = errors.New("country code must be three letters")
	ErrMissingRequiredFields = errors.New("missing required fields")
)
