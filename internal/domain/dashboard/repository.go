package dashboard

import (
	"context"
	"time"

	"membership-app-go/internal/domain/billing"
	"membership-app-go/internal/domain/membership"
	"membership-app-go/internal/domain/notification"
)

// Repository holds the read-only queries behind the dashboards. Methods are
// called concurrently and must not share a transaction.
type Repository interface {
	MemberCounts(ctx context.Context, today, since time.Time) (MemberCounts, error)
	PaymentTotals(ctx context.Context, since time.Time) (PaymentTotals, error)
	CategoryDistribution(ctx context.Context) ([]CategoryCount, error)
	RegionalDistribution(ctx context.Context, limit int) ([]RegionCount, error)
	PendingMembers(ctx context.Context, limit int) ([]MemberSummary, int64, error)
	ExpiringMembers(ctx context.Context, from, to time.Time, limit int) ([]MemberSummary, int64, error)
	RecentPayments(ctx context.Context, statuses []string, limit int) ([]PaymentSummary, error)
	RecentAudits(ctx context.Context, limit int) ([]AuditSummary, error)
	CountRegistrationsSince(ctx context.Context, since time.Time) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)

	GetMemberViewByUserID(ctx context.Context, userID string) (*membership.MemberView, error)
	MemberPayments(ctx context.Context, memberID string, limit int) ([]billing.Payment, error)
	RecentNotifications(ctx context.Context, userID string, limit int) ([]notification.Notification, error)
	ActiveCertificates(ctx context.Context, memberID string) ([]membership.Certificate, error)
	MemberRenewals(ctx context.Context, memberID string, limit int) ([]membership.Renewal, error)
	MemberDocuments(ctx context.Context, memberID string) ([]membership.Document, error)
}
