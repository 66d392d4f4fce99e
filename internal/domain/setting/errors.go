package setting

import "errors"

var (
	ErrSettingNotFound = errors.New("setting not found")
	ErrInvalidKey      = errors.New("invalid setting key")
)
