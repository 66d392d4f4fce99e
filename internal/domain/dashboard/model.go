package dashboard

import (
	"time"

	"membership-app-go/internal/domain/billing"
	"membership-app-go/internal/domain/membership"
	"membership-app-go/internal/domain/notification"
)

const (
	RecentLimit       = 10
	PendingLimit      = 5
	AdminExpiringDays = 30
	StaffExpiringDays = 14
	RecentDays        = 30
	StaffRecentDays   = 7
)

type MemberCounts struct {
	Total      int64 `json:"total"`
	Active     int64 `json:"active"`
	Pending    int64 `json:"pending"`
	Expired    int64 `json:"expired"`
	Registered int64 `json:"registered_since"`
}

type PaymentTotals struct {
	Revenue      float64 `json:"revenue"`
	RevenueSince float64 `json:"revenue_since"`
	PendingCount int64   `json:"pending_count"`
	Completed    int64   `json:"completed_count"`
}

type CategoryCount struct {
	CategoryName string `json:"category_name"`
	Count        int64  `json:"count"`
}

type RegionCount struct {
	RegionName  string `json:"region_name"`
	CountryName string `json:"country_name"`
	Count       int64  `json:"count"`
}

type MemberSummary struct {
	ID               string     `json:"id"`
	MembershipID     string     `json:"membership_id"`
	FullName         string     `json:"full_name"`
	Status           string     `json:"status"`
	CategoryName     string     `json:"category_name"`
	RegistrationDate time.Time  `json:"registration_date"`
	ExpiryDate       *time.Time `json:"expiry_date,omitempty"`
}

type PaymentSummary struct {
	ID           string     `json:"id"`
	Reference    string     `json:"payment_reference"`
	MembershipID string     `json:"membership_id"`
	MemberName   string     `json:"member_name"`
	Type         string     `json:"payment_type"`
	Amount       float64    `json:"amount"`
	Currency     string     `json:"currency"`
	Status       string     `json:"status"`
	InitiatedAt  time.Time  `json:"initiated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type AuditSummary struct {
	ID          string    `json:"id"`
	ActorID     *string   `json:"actor_id,omitempty"`
	Action      string    `json:"action"`
	ModelName   string    `json:"model_name"`
	ObjectID    string    `json:"object_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// AdminStats is shared by every admin and is cached.
type AdminStats struct {
	Members              MemberCounts     `json:"members"`
	Payments             PaymentTotals    `json:"payments"`
	CategoryDistribution []CategoryCount  `json:"category_distribution"`
	RegionalDistribution []RegionCount    `json:"regional_distribution"`
	PendingApprovals     []MemberSummary  `json:"pending_approvals"`
	RecentPayments       []PaymentSummary `json:"recent_payments"`
	ExpiringSoon         []MemberSummary  `json:"expiring_soon"`
	RecentAudits         []AuditSummary   `json:"recent_audits"`
	GeneratedAt          time.Time        `json:"generated_at"`
}

type AdminDashboard struct {
	AdminStats
	UnreadNotifications int64 `json:"unread_notifications"`
}

// StaffStats is shared by every staff user and is cached.
type StaffStats struct {
	PendingApprovals    []MemberSummary  `json:"pending_approvals"`
	TotalPending        int64            `json:"total_pending"`
	RecentRegistrations int64            `json:"recent_registrations"`
	TodayRegistrations  int64            `json:"today_registrations"`
	PendingPayments     []PaymentSummary `json:"pending_payments"`
	ExpiringSoon        []MemberSummary  `json:"expiring_soon"`
	TotalExpiring       int64            `json:"total_expiring"`
	RecentPayments      []PaymentSummary `json:"recent_payments"`
	GeneratedAt         time.Time        `json:"generated_at"`
}

type StaffDashboard struct {
	StaffStats
	UnreadNotifications int64 `json:"unread_notifications"`
}

type MemberDashboard struct {
	Member              membership.MemberView
	IsActive            bool
	DaysUntilExpiry     *int
	Payments            []billing.Payment
	Notifications       []notification.Notification
	UnreadNotifications int64
	Certificates        []membership.Certificate
	Renewals            []membership.Renewal
	Documents           []membership.Document
}
