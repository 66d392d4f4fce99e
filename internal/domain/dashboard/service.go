package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	"membership-app-go/internal/domain/billing"
	"membership-app-go/internal/domain/membership"
	"membership-app-go/pkg/logger"
)

const (
	adminStatsKey = "dashboard:admin:stats"
	staffStatsKey = "dashboard:staff:stats"

	DefaultCacheTTL = 30 * time.Second
)

type Option func(*Service)

func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
		s.ttl = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	now   func() time.Time
	log   logger.Logger
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:  repo,
		cache: noopCache{},
		ttl:   DefaultCacheTTL,
		now:   time.Now,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Admin(ctx context.Context, userID string) (AdminDashboard, error) {
	var (
		stats  AdminStats
		unread int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.adminStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		unread, err = s.repo.CountUnread(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return AdminDashboard{}, err
	}

	return AdminDashboard{AdminStats: stats, UnreadNotifications: unread}, nil
}

func (s *Service) adminStats(ctx context.Context) (AdminStats, error) {
	var stats AdminStats
	if s.cached(ctx, adminStatsKey, &stats) {
		return stats, nil
	}

	now := s.now().UTC()
	today := membership.Today(now)
	since := today.AddDate(0, 0, -RecentDays)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.Members, err = s.repo.MemberCounts(gctx, today, since)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Payments, err = s.repo.PaymentTotals(gctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		stats.CategoryDistribution, err = s.repo.CategoryDistribution(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.RegionalDistribution, err = s.repo.RegionalDistribution(gctx, RecentLimit)
		return err
	})
	g.Go(func() error {
		var err error
		stats.PendingApprovals, _, err = s.repo.PendingMembers(gctx, PendingLimit)
		return err
	})
	g.Go(func() error {
		var err error
		stats.RecentPayments, err = s.repo.RecentPayments(gctx, []string{billing.StatusCompleted}, RecentLimit)
		return err
	})
	g.Go(func() error {
		var err error
		stats.ExpiringSoon, _, err = s.repo.ExpiringMembers(gctx, today, today.AddDate(0, 0, AdminExpiringDays), RecentLimit)
		return err
	})
	g.Go(func() error {
		var err error
		stats.RecentAudits, err = s.repo.RecentAudits(gctx, RecentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return AdminStats{}, err
	}

	stats.GeneratedAt = now
	s.store(ctx, adminStatsKey, stats)
	return stats, nil
}

func (s *Service) Staff(ctx context.Context, userID string) (StaffDashboard, error) {
	var (
		stats  StaffStats
		unread int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.staffStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		unread, err = s.repo.CountUnread(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return StaffDashboard{}, err
	}

	return StaffDashboard{StaffStats: stats, UnreadNotifications: unread}, nil
}

func (s *Service) staffStats(ctx context.Context) (StaffStats, error) {
	var stats StaffStats
	if s.cached(ctx, staffStatsKey, &stats) {
		return stats, nil
	}

	now := s.now().UTC()
	today := membership.Today(now)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.PendingApprovals, stats.TotalPending, err = s.repo.PendingMembers(gctx, RecentLimit)
		return err
	})
	g.Go(func() error {
		var err error
		stats.RecentRegistrations, err = s.repo.CountRegistrationsSince(gctx, today.AddDate(0, 0, -StaffRecentDays))
		return err
	})
	g.Go(func() error {
		var err error
		stats.TodayRegistrations, err = s.repo.CountRegistrationsSince(gctx, today)
		return err
	})
	g.Go(func() error {
		var err error
		stats.PendingPayments, err = s.repo.RecentPayments(gctx, []string{billing.StatusInitiated, billing.StatusPending}, RecentLimit)
		return err
	})
	g.Go(func() error {
		var err error
		stats.ExpiringSoon, stats.TotalExpiring, err = s.repo.ExpiringMembers(gctx, today, today.AddDate(0, 0, StaffExpiringDays), RecentLimit)
		return err
	})
	g.Go(func() error {
		var err error
		stats.RecentPayments, err = s.repo.RecentPayments(gctx, []string{billing.StatusCompleted}, PendingLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return StaffStats{}, err
	}

	stats.GeneratedAt = now
	s.store(ctx, staffStatsKey, stats)
	return stats, nil
}

// Member is never cached: it is per user and cheap.
func (s *Service) Member(ctx context.Context, userID string) (MemberDashboard, error) {
	view, err := s.repo.GetMemberViewByUserID(ctx, userID)
	if err != nil {
		return MemberDashboard{}, err
	}

	now := s.now()
	result := MemberDashboard{
		Member:   *view,
		IsActive: view.IsActive(now),
	}
	if days, ok := view.DaysUntilExpiry(now); ok {
		result.DaysUntilExpiry = &days
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		result.Payments, err = s.repo.MemberPayments(gctx, view.ID, RecentLimit)
		return err
	})
	g.Go(func() error {
		var err error
		result.Notifications, err = s.repo.RecentNotifications(gctx, userID, PendingLimit)
		return err
	})
	g.Go(func() error {
		var err error
		result.UnreadNotifications, err = s.repo.CountUnread(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		result.Certificates, err = s.repo.ActiveCertificates(gctx, view.ID)
		return err
	})
	g.Go(func() error {
		var err error
		result.Renewals, err = s.repo.MemberRenewals(gctx, view.ID, PendingLimit)
		return err
	})
	g.Go(func() error {
		var err error
		result.Documents, err = s.repo.MemberDocuments(gctx, view.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return MemberDashboard{}, err
	}
	return result, nil
}

// Invalidate drops the cached aggregates after a write that changes them.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, adminStatsKey, staffStatsKey); err != nil {
		s.log.InternalError("dashboard.invalidate: cache delete failed", err)
	}
}

// cached and store log cache errors and treat them as misses.
func (s *Service) cached(ctx context.Context, key string, dst any) bool {
	if s.ttl <= 0 {
		return false
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.InternalError("dashboard.cache: get failed", err, "key", key)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.InternalError("dashboard.cache: decode failed", err, "key", key)
		return false
	}
	return true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.InternalError("dashboard.cache: encode failed", err, "key", key)
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.log.InternalError("dashboard.cache: set failed", err, "key", key)
	}
}
