package billing

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	billingdomain "membership-app-go/internal/domain/billing"
	membershipdomain "membership-app-go/internal/domain/membership"
	"membership-app-go/internal/repository/postgres/counter"
	"membership-app-go/internal/repository/postgres/eventstore"
	"membership-app-go/internal/repository/postgres/pgerr"
)

type PostgresRepository struct {
	*eventstore.Store
	*counter.Counter

	db          *gorm.DB
	lockTimeout time.Duration
}

func NewPostgres(db *gorm.DB, lockTimeout time.Duration) *PostgresRepository {
	return &PostgresRepository{
		Store:       eventstore.New(db),
		Counter:     counter.New(db, lockTimeout),
		db:          db,
		lockTimeout: lockTimeout,
	}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(billingdomain.Repository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewPostgres(tx, r.lockTimeout))
	})
	return pgerr.Translate(err)
}

func (r *PostgresRepository) GetMemberRef(ctx context.Context, memberID string) (*billingdomain.MemberRef, error) {
	var member membershipdomain.Member
	err := r.db.WithContext(ctx).
		Select("id", "user_id", "membership_id", "first_name", "middle_name", "last_name").
		Where("id = ?", memberID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billingdomain.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &billingdomain.MemberRef{
		ID:           member.ID,
		UserID:       member.UserID,
		MembershipID: member.MembershipID,
		FullName:     member.FullName(),
	}, nil
}

func (r *PostgresRepository) CreatePayment(ctx context.Context, payment *billingdomain.Payment) error {
	return pgerr.Translate(r.db.WithContext(ctx).Create(payment).Error)
}

func (r *PostgresRepository) GetPayment(ctx context.Context, id string) (*billingdomain.Payment, error) {
	return r.getPayment(r.db.WithContext(ctx), "id = ?", id)
}

func (r *PostgresRepository) GetPaymentForUpdate(ctx context.Context, id string) (*billingdomain.Payment, error) {
	return r.getPayment(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *PostgresRepository) GetPaymentByReference(ctx context.Context, reference string) (*billingdomain.Payment, error) {
	return r.getPayment(r.db.WithContext(ctx), "payment_reference = ?", reference)
}

func (r *PostgresRepository) getPayment(db *gorm.DB, query string, arg string) (*billingdomain.Payment, error) {
	var payment billingdomain.Payment
	if err := db.Where(query, arg).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billingdomain.ErrPaymentNotFound
		}
		return nil, pgerr.Translate(err)
	}
	return &payment, nil
}

func (r *PostgresRepository) UpdatePaymentStatus(ctx context.Context, payment *billingdomain.Payment, from string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&billingdomain.Payment{}).
		Where("id = ? AND status = ?", payment.ID, from).
		Updates(map[string]interface{}{
			"status":               payment.Status,
			"completed_at":         payment.CompletedAt,
			"refunded_at":          payment.RefundedAt,
			"mpesa_receipt_number": payment.MpesaReceiptNumber,
			"checkout_request_id":  payment.CheckoutRequestID,
			"merchant_request_id":  payment.MerchantRequestID,
			"failure_reason":       payment.FailureReason,
		})
	if result.Error != nil {
		return 0, pgerr.Translate(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *PostgresRepository) CreateReceipt(ctx context.Context, receipt *billingdomain.Receipt) error {
	return pgerr.Translate(r.db.WithContext(ctx).Create(receipt).Error)
}

func (r *PostgresRepository) GetReceiptByPayment(ctx context.Context, paymentID string) (*billingdomain.Receipt, error) {
	var receipt billingdomain.Receipt
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billingdomain.ErrReceiptNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

func (r *PostgresRepository) ListPayments(ctx context.Context, filter billingdomain.ListFilter) ([]billingdomain.PaymentView, int64, error) {
	query := r.db.WithContext(ctx).
		Table("payments").
		Joins("join members on members.id = payments.member_id")
	if filter.MemberID != "" {
		query = query.Where("payments.member_id = ?", filter.MemberID)
	}
	if filter.Status != "" {
		query = query.Where("payments.status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("payments.payment_type = ?", filter.Type)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(
			"payments.payment_reference ILIKE ? OR payments.mpesa_receipt_number ILIKE ? OR members.membership_id ILIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.
		Select("payments.*, members.membership_id AS membership_id, " +
			"concat_ws(' ', members.first_name, NULLIF(members.middle_name, ''), members.last_name) AS member_name").
		Order("payments.initiated_at desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var items []billingdomain.PaymentView
	if err := query.Scan(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
