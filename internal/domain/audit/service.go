package audit

import (
	"context"
	"strings"
)

const (
	DefaultLimit = 25
	MaxLimit     = 200
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Entry, int64, error) {
	filter.Action = strings.TrimSpace(strings.ToLower(filter.Action))
	if filter.Action != "" && !IsValidAction(filter.Action) {
		return nil, 0, ErrInvalidAction
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Limit = normalizeLimit(filter.Limit)

	entries, total, err := s.repo.ListEntries(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, total, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
