package audit

import "errors"

var ErrInvalidAction = errors.New("invalid audit action")
