package notification

import (
	"context"
	"time"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) ListForRecipient(ctx context.Context, filter ListFilter) ([]Notification, int64, error) {
	if filter.RecipientID == "" {
		return nil, 0, ErrRecipientRequired
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}

	items, total, err := s.repo.ListNotifications(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []Notification{}
	}
	return items, total, nil
}

func (s *Service) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	if recipientID == "" {
		return 0, ErrRecipientRequired
	}
	return s.repo.CountUnread(ctx, recipientID)
}

// MarkRead marks the recipient's own unread notifications as read. IDs that
// belong to someone else or are already read are skipped.
func (s *Service) MarkRead(ctx context.Context, recipientID string, ids []string) (int64, error) {
	if recipientID == "" {
		return 0, ErrRecipientRequired
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.MarkRead(ctx, recipientID, ids, s.now().UTC())
}

func (s *Service) MarkSentEmail(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.MarkSentEmail(ctx, ids)
}
