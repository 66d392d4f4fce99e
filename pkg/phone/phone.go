// Package phone normalizes user supplied phone numbers to E.164.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const DefaultRegion = "KE"

var (
	ErrInvalid     = errors.New("invalid phone number")
	ErrWrongRegion = errors.New("phone number is outside the allowed region")
)

// Normalize parses raw, interpreting national numbers in region, and returns
// the E.164 form.
func Normalize(raw, region string) (string, error) {
	number, err := parse(raw, region)
	if err != nil {
		return "", err
	}
	return phonenumbers.Format(number, phonenumbers.E164), nil
}

// NormalizeInRegion is Normalize plus a check that the number belongs to region.
func NormalizeInRegion(raw, region string) (string, error) {
	number, err := parse(raw, region)
	if err != nil {
		return "", err
	}
	if phonenumbers.GetRegionCodeForNumber(number) != normalizeRegion(region) {
		return "", ErrWrongRegion
	}
	return phonenumbers.Format(number, phonenumbers.E164), nil
}

func parse(raw, region string) (*phonenumbers.PhoneNumber, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalid
	}
	number, err := phonenumbers.Parse(raw, normalizeRegion(region))
	if err != nil {
		return nil, ErrInvalid
	}
	if !phonenumbers.IsValidNumber(number) {
		return nil, ErrInvalid
	}
	return number, nil
}

func normalizeRegion(region string) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		return DefaultRegion
	}
	return region
}
