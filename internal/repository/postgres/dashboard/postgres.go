package dashboard

import (
	"context"
	"time"

	"gorm.io/gorm"

	billingdomain "membership-app-go/internal/domain/billing"
	domain "membership-app-go/internal/domain/dashboard"
	membershipdomain "membership-app-go/internal/domain/membership"
	notificationdomain "membership-app-go/internal/domain/notification"
)

const memberNameExpr = "concat_ws(' ', members.first_name, NULLIF(members.middle_name, ''), members.last_name)"

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) MemberCounts(ctx context.Context, today, since time.Time) (domain.MemberCounts, error) {
	var counts domain.MemberCounts
	err := r.db.WithContext(ctx).
		Table("members").
		Select(`COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = ? AND (expiry_date IS NULL OR expiry_date >= ?)) AS active,
			COUNT(*) FILTER (WHERE status = ?) AS pending,
			COUNT(*) FILTER (WHERE status = ? OR (status IN ? AND expiry_date < ?)) AS expired,
			COUNT(*) FILTER (WHERE registration_date >= ?) AS registered`,
			membershipdomain.StatusApproved, today,
			membershipdomain.StatusPending,
			membershipdomain.StatusExpired,
			[]string{membershipdomain.StatusApproved, membershipdomain.StatusSuspended}, today,
			since,
		).
		Scan(&counts).Error
	return counts, err
}

func (r *PostgresRepository) PaymentTotals(ctx context.Context, since time.Time) (domain.PaymentTotals, error) {
	var totals domain.PaymentTotals
	err := r.db.WithContext(ctx).
		Table("payments").
		Select(`COALESCE(SUM(amount) FILTER (WHERE status = ?), 0) AS revenue,
			COALESCE(SUM(amount) FILTER (WHERE status = ? AND completed_at >= ?), 0) AS revenue_since,
			COUNT(*) FILTER (WHERE status IN ?) AS pending_count,
			COUNT(*) FILTER (WHERE status = ?) AS completed`,
			billingdomain.StatusCompleted,
			billingdomain.StatusCompleted, since,
			[]string{billingdomain.StatusInitiated, billingdomain.StatusPending},
			billingdomain.StatusCompleted,
		).
		Scan(&totals).Error
	return totals, err
}

func (r *PostgresRepository) CategoryDistribution(ctx context.Context) ([]domain.CategoryCount, error) {
	var items []domain.CategoryCount
	err := r.db.WithContext(ctx).
		Table("membership_categories").
		Select("membership_categories.name AS category_name, COUNT(members.id) AS count").
		Joins("left join members on members.category_id = membership_categories.id").
		Group("membership_categories.id, membership_categories.name").
		Order("count desc, category_name asc").
		Scan(&items).Error
	return items, err
}

func (r *PostgresRepository) RegionalDistribution(ctx context.Context, limit int) ([]domain.RegionCount, error) {
	var items []domain.RegionCount
	err := r.db.WithContext(ctx).
		Table("members").
		Select("regions.name AS region_name, countries.name AS country_name, COUNT(members.id) AS count").
		Joins("join regions on regions.id = members.region_id").
		Joins("join countries on countries.id = regions.country_id").
		Group("regions.id, regions.name, countries.name").
		Order("count desc, region_name asc").
		Limit(limit).
		Scan(&items).Error
	return items, err
}

func (r *PostgresRepository) memberSummaries(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("members").
		Joins("join membership_categories on membership_categories.id = members.category_id")
}

func (r *PostgresRepository) listSummaries(query *gorm.DB, order string, limit int) ([]domain.MemberSummary, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []domain.MemberSummary
	err := query.
		Select("members.id, members.membership_id, " + memberNameExpr + " AS full_name, " +
			"members.status, membership_categories.name AS category_name, members.registration_date, members.expiry_date").
		Order(order).
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresRepository) PendingMembers(ctx context.Context, limit int) ([]domain.MemberSummary, int64, error) {
	query := r.memberSummaries(ctx).Where("members.status = ?", membershipdomain.StatusPending)
	return r.listSummaries(query, "members.registration_date asc", limit)
}

func (r *PostgresRepository) ExpiringMembers(ctx context.Context, from, to time.Time, limit int) ([]domain.MemberSummary, int64, error) {
	query := r.memberSummaries(ctx).
		Where("members.status = ? AND members.expiry_date BETWEEN ? AND ?", membershipdomain.StatusApproved, from, to)
	return r.listSummaries(query, "members.expiry_date asc", limit)
}

func (r *PostgresRepository) RecentPayments(ctx context.Context, statuses []string, limit int) ([]domain.PaymentSummary, error) {
	var items []domain.PaymentSummary
	err := r.db.WithContext(ctx).
		Table("payments").
		Select("payments.id, payments.payment_reference AS reference, members.membership_id, " +
			memberNameExpr + " AS member_name, payments.payment_type AS type, payments.amount, " +
			"payments.currency, payments.status, payments.initiated_at, payments.completed_at").
		Joins("join members on members.id = payments.member_id").
		Where("payments.status IN ?", statuses).
		Order("payments.initiated_at desc").
		Limit(limit).
		Scan(&items).Error
	return items, err
}

func (r *PostgresRepository) RecentAudits(ctx context.Context, limit int) ([]domain.AuditSummary, error) {
	var items []domain.AuditSummary
	err := r.db.WithContext(ctx).
		Table("audit_logs").
		Select("id, actor_id, action, model_name, object_id, description, created_at").
		Order("created_at desc").
		Limit(limit).
		Scan(&items).Error
	return items, err
}

func (r *PostgresRepository) CountRegistrationsSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("members").
		Where("registration_date >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *PostgresRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&notificationdomain.Notification{}).
		Where("recipient_id = ? AND NOT is_read", userID).
		Count(&count).Error
	return count, err
}

func (r *PostgresRepository) GetMemberViewByUserID(ctx context.Context, userID string) (*membershipdomain.MemberView, error) {
	var view membershipdomain.MemberView
	result := r.db.WithContext(ctx).
		Table("members").
		Select("members.*, membership_categories.name AS category_name, countries.name AS country_name, " +
			"COALESCE(regions.name, '') AS region_name").
		Joins("join membership_categories on membership_categories.id = members.category_id").
		Joins("join countries on countries.id = members.country_id").
		Joins("left join regions on regions.id = members.region_id").
		Where("members.user_id = ?", userID).
		Limit(1).
		Scan(&view)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, membershipdomain.ErrMemberNotFound
	}
	return &view, nil
}

func (r *PostgresRepository) MemberPayments(ctx context.Context, memberID string, limit int) ([]billingdomain.Payment, error) {
	var items []billingdomain.Payment
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("initiated_at desc").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *PostgresRepository) RecentNotifications(ctx context.Context, userID string, limit int) ([]notificationdomain.Notification, error) {
	var items []notificationdomain.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *PostgresRepository) ActiveCertificates(ctx context.Context, memberID string) ([]membershipdomain.Certificate, error) {
	var items []membershipdomain.Certificate
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND is_active", memberID).
		Order("issue_date desc").
		Find(&items).Error
	return items, err
}

func (r *PostgresRepository) MemberRenewals(ctx context.Context, memberID string, limit int) ([]membershipdomain.Renewal, error) {
	var items []membershipdomain.Renewal
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("initiated_at desc").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *PostgresRepository) MemberDocuments(ctx context.Context, memberID string) ([]membershipdomain.Document, error) {
	var items []membershipdomain.Document
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("uploaded_at desc").
		Find(&items).Error
	return items, err
}
