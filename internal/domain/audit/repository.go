package audit

import "context"

// Repository is read-only. Entries are written through event.Dispatch only.
type Repository interface {
	ListEntries(ctx context.Context, filter ListFilter) ([]Entry, int64, error)
}
