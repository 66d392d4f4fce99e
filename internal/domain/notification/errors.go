package notification

import "errors"

var ErrRecipientRequired = errors.New("recipient is required")
