package sequence

import "errors"

var (
	// ErrAllocationConflict means the counter row could not be locked in time
	// or the transaction lost a serialization race. Retry the whole operation.
	ErrAllocationConflict = errors.New("identifier allocation conflict")
	ErrInvalidSequence    = errors.New("invalid sequence value")
	ErrInvalidIdentifier  = errors.New("invalid identifier")
)
