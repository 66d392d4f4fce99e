package membership

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	billingdomain "membership-app-go/internal/domain/billing"
	membershipdomain "membership-app-go/internal/domain/membership"
	billingrepo "membership-app-go/internal/repository/postgres/billing"
	"membership-app-go/internal/repository/postgres/counter"
	"membership-app-go/internal/repository/postgres/eventstore"
	"membership-app-go/internal/repository/postgres/pgerr"
)

type PostgresRepository struct {
	*eventstore.Store
	*counter.Counter

	db          *gorm.DB
	payments    *billingrepo.PostgresRepository
	lockTimeout time.Duration
}

func NewPostgres(db *gorm.DB, lockTimeout time.Duration) *PostgresRepository {
	return &PostgresRepository{
		Store:       eventstore.New(db),
		Counter:     counter.New(db, lockTimeout),
		db:          db,
		payments:    billingrepo.NewPostgres(db, lockTimeout),
		lockTimeout: lockTimeout,
	}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(membershipdomain.Repository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewPostgres(tx, r.lockTimeout))
	})
	return pgerr.Translate(err)
}

func (r *PostgresRepository) GetMemberRef(ctx context.Context, memberID string) (*billingdomain.MemberRef, error) {
	return r.payments.GetMemberRef(ctx, memberID)
}

func (r *PostgresRepository) CreatePayment(ctx context.Context, payment *billingdomain.Payment) error {
	return r.payments.CreatePayment(ctx, payment)
}

func (r *PostgresRepository) GetPayment(ctx context.Context, id string) (*billingdomain.Payment, error) {
	return r.payments.GetPayment(ctx, id)
}

func (r *PostgresRepository) GetPaymentForUpdate(ctx context.Context, id string) (*billingdomain.Payment, error) {
	return r.payments.GetPaymentForUpdate(ctx, id)
}

func (r *PostgresRepository) UpdatePaymentStatus(ctx context.Context, payment *billingdomain.Payment, from string) (int64, error) {
	return r.payments.UpdatePaymentStatus(ctx, payment, from)
}

func (r *PostgresRepository) CreateReceipt(ctx context.Context, receipt *billingdomain.Receipt) error {
	return r.payments.CreateReceipt(ctx, receipt)
}

func (r *PostgresRepository) ListCategories(ctx context.Context, activeOnly bool) ([]membershipdomain.Category, error) {
	query := r.db.WithContext(ctx).Order("name asc")
	if activeOnly {
		query = query.Where("is_active")
	}
	var items []membershipdomain.Category
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) GetCategory(ctx context.Context, id string) (*membershipdomain.Category, error) {
	var category membershipdomain.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, membershipdomain.ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, category *membershipdomain.Category) error {
	return pgerr.Translate(r.db.WithContext(ctx).Select("*").Create(category).Error)
}

func (r *PostgresRepository) UpdateCategory(ctx context.Context, category *membershipdomain.Category) error {
	err := r.db.WithContext(ctx).
		Model(&membershipdomain.Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]interface{}{
			"name":             category.Name,
			"description":      category.Description,
			"registration_fee": category.RegistrationFee,
			"annual_fee":       category.AnnualFee,
			"benefits":         category.Benefits,
			"duration_months":  category.DurationMonths,
			"is_active":        category.IsActive,
			"updated_at":       time.Now().UTC(),
		}).Error
	return pgerr.Translate(err)
}

func (r *PostgresRepository) DeleteCategory(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&membershipdomain.Category{}, "id = ?", id)
	if result.Error != nil {
		return pgerr.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return membershipdomain.ErrCategoryNotFound
	}
	return nil
}

func (r *PostgresRepository) CountryIsActive(ctx context.Context, countryID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("countries").
		Where("id = ? AND is_active", countryID).
		Count(&count).Error
	return count > 0, err
}

func (r *PostgresRepository) RegionBelongsToCountry(ctx context.Context, regionID, countryID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("regions").
		Where("id = ? AND country_id = ? AND is_active", regionID, countryID).
		Count(&count).Error
	return count > 0, err
}

func (r *PostgresRepository) CreateMember(ctx context.Context, member *membershipdomain.Member) error {
	return pgerr.Translate(r.db.WithContext(ctx).Create(member).Error)
}

func (r *PostgresRepository) GetMember(ctx context.Context, id string) (*membershipdomain.Member, error) {
	return r.getMember(r.db.WithContext(ctx), "id = ?", id)
}

func (r *PostgresRepository) GetMemberByUserID(ctx context.Context, userID string) (*membershipdomain.Member, error) {
	return r.getMember(r.db.WithContext(ctx), "user_id = ?", userID)
}

func (r *PostgresRepository) GetMemberForUpdate(ctx context.Context, id string) (*membershipdomain.Member, error) {
	return r.getMember(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *PostgresRepository) getMember(db *gorm.DB, query string, arg string) (*membershipdomain.Member, error) {
	var member membershipdomain.Member
	if err := db.Where(query, arg).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, membershipdomain.ErrMemberNotFound
		}
		return nil, pgerr.Translate(err)
	}
	return &member, nil
}

func (r *PostgresRepository) GetMembersByIDs(ctx context.Context, ids []string) ([]membershipdomain.Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var members []membershipdomain.Member
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("membership_id asc").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) UpdateMemberLifecycle(ctx context.Context, member *membershipdomain.Member, from string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&membershipdomain.Member{}).
		Where("id = ? AND status = ?", member.ID, from).
		Updates(map[string]interface{}{
			"status":           member.Status,
			"approval_date":    member.ApprovalDate,
			"expiry_date":      member.ExpiryDate,
			"approved_by":      member.ApprovedBy,
			"rejection_reason": member.RejectionReason,
			"updated_at":       time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, pgerr.Translate(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context, filter membershipdomain.ListFilter) ([]membershipdomain.MemberView, int64, error) {
	query := r.db.WithContext(ctx).
		Table("members").
		Joins("join membership_categories on membership_categories.id = members.category_id").
		Joins("join countries on countries.id = members.country_id").
		Joins("left join regions on regions.id = members.region_id")
	if filter.Status != "" {
		query = query.Where("members.status = ?", filter.Status)
	}
	if filter.CategoryID != "" {
		query = query.Where("members.category_id = ?", filter.CategoryID)
	}
	if filter.CountryID != "" {
		query = query.Where("members.country_id = ?", filter.CountryID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(
			"members.membership_id ILIKE ? OR members.first_name ILIKE ? OR members.last_name ILIKE ? OR members.email ILIKE ? OR members.national_id ILIKE ?",
			like, like, like, like, like,
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.
		Select("members.*, membership_categories.name AS category_name, countries.name AS country_name, " +
			"COALESCE(regions.name, '') AS region_name").
		Order("members.registration_date desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var items []membershipdomain.MemberView
	if err := query.Scan(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// DeleteMember relies on ON DELETE CASCADE for payments, receipts, documents,
// renewals and certificates.
func (r *PostgresRepository) DeleteMember(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&membershipdomain.Member{}, "id = ?", id)
	if result.Error != nil {
		return pgerr.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return membershipdomain.ErrMemberNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateRenewal(ctx context.Context, renewal *membershipdomain.Renewal) error {
	return pgerr.Translate(r.db.WithContext(ctx).Create(renewal).Error)
}

func (r *PostgresRepository) GetRenewalForUpdate(ctx context.Context, id string) (*membershipdomain.Renewal, error) {
	return r.getRenewal(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *PostgresRepository) GetRenewalByPayment(ctx context.Context, paymentID string) (*membershipdomain.Renewal, error) {
	return r.getRenewal(r.db.WithContext(ctx), "payment_id = ?", paymentID)
}

func (r *PostgresRepository) getRenewal(db *gorm.DB, query string, arg string) (*membershipdomain.Renewal, error) {
	var renewal membershipdomain.Renewal
	if err := db.Where(query, arg).First(&renewal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, membershipdomain.ErrRenewalNotFound
		}
		return nil, pgerr.Translate(err)
	}
	return &renewal, nil
}

func (r *PostgresRepository) HasPendingRenewal(ctx context.Context, memberID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&membershipdomain.Renewal{}).
		Where("member_id = ? AND status = ?", memberID, membershipdomain.RenewalPendingPayment).
		Count(&count).Error
	return count > 0, err
}

func (r *PostgresRepository) CompleteRenewal(ctx context.Context, renewal *membershipdomain.Renewal) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&membershipdomain.Renewal{}).
		Where("id = ? AND status = ?", renewal.ID, membershipdomain.RenewalPendingPayment).
		Updates(map[string]interface{}{
			"status":          renewal.Status,
			"completed_at":    renewal.CompletedAt,
			"new_expiry_date": renewal.NewExpiryDate,
		})
	if result.Error != nil {
		return 0, pgerr.Translate(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *PostgresRepository) ListRenewals(ctx context.Context, memberID string) ([]membershipdomain.Renewal, error) {
	var items []membershipdomain.Renewal
	if err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("initiated_at desc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) CreateCertificate(ctx context.Context, certificate *membershipdomain.Certificate) error {
	return pgerr.Translate(r.db.WithContext(ctx).Select("*").Create(certificate).Error)
}

func (r *PostgresRepository) ListCertificates(ctx context.Context, memberID string) ([]membershipdomain.Certificate, error) {
	var items []membershipdomain.Certificate
	if err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("issue_date desc, created_at desc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) CreateDocument(ctx context.Context, document *membershipdomain.Document) error {
	return pgerr.Translate(r.db.WithContext(ctx).Create(document).Error)
}

func (r *PostgresRepository) ListDocuments(ctx context.Context, memberID string) ([]membershipdomain.Document, error) {
	var items []membershipdomain.Document
	if err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("uploaded_at desc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) VerifyDocuments(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&membershipdomain.Document{}).
		Where("id IN ? AND NOT is_verified", ids).
		Update("is_verified", true)
	if result.Error != nil {
		return 0, pgerr.Translate(result.Error)
	}
	return result.RowsAffected, nil
}
