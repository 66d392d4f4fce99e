package user

import "errors"

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrInactiveUser          = errors.New("user account is disabled")
	ErrInvalidUserType       = errors.New("invalid user type")
	ErrInvalidEmail          = errors.New("invalid email")
	ErrInvalidPhone          = errors.New("phone number must be a valid Kenyan number")
	ErrWeakPassword          = errors.New("password is too short")
	ErrMissingRequiredFields = errors.New("missing required fields")
)
