package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	entries []Entry
	last    ListFilter
}

func (r *fakeRepo) ListEntries(_ context.Context, filter ListFilter) ([]Entry, int64, error) {
	r.last = filter
	var result []Entry
	for _, entry := range r.entries {
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		result = append(result, entry)
	}
	return result, int64(len(result)), nil
}

func TestListNormalizesFilter(t *testing.T) {
	repo := &fakeRepo{entries: []Entry{
		{ID: "1", Action: ActionApprove},
		{ID: "2", Action: ActionLogin},
	}}
	service := NewService(repo)

	entries, total, err := service.List(context.Background(), ListFilter{Action: " APPROVE ", Limit: 1000})
	require.NoError(t, err)

	assert.Equal(t, int64(1), total)
	assert.Equal(t, "1", entries[0].ID)
	assert.Equal(t, MaxLimit, repo.last.Limit)
	assert.Equal(t, ActionApprove, repo.last.Action)
}

func TestListDefaultsLimitAndEmptySlice(t *testing.T) {
	repo := &fakeRepo{}
	entries, total, err := NewService(repo).List(context.Background(), ListFilter{})
	require.NoError(t, err)

	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	assert.Zero(t, total)
	assert.Equal(t, DefaultLimit, repo.last.Limit)
}

func TestListRejectsUnknownAction(t *testing.T) {
	_, _, err := NewService(&fakeRepo{}).List(context.Background(), ListFilter{Action: "drop"})
	assert.ErrorIs(t, err, ErrInvalidAction)
}
