package billing

import "time"

const (
	TypeRegistration = "registration"
	TypeRenewal      = "renewal"
	TypeLateFee      = "late_fee"
)

const (
	StatusInitiated = "initiated"
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
	StatusRefunded  = "refunded"
)

const DefaultCurrency = "KES"

type Payment struct {
	ID                 string     `gorm:"type:uuid;primaryKey"`
	MemberID           string     `gorm:"type:uuid;not null;index"`
	Reference          string     `gorm:"column:payment_reference;type:varchar(32);not null;uniqueIndex"`
	Type               string     `gorm:"column:payment_type;type:varchar(20);not null"`
	Amount             float64    `gorm:"type:numeric(10,2);not null"`
	Currency           string     `gorm:"type:varchar(3);not null"`
	PhoneNumber        string     `gorm:"type:varchar(16);not null"`
	MpesaReceiptNumber string     `gorm:"type:varchar(50);not null"`
	CheckoutRequestID  string     `gorm:"type:varchar(100);not null"`
	MerchantRequestID  string     `gorm:"type:varchar(100);not null"`
	Status             string     `gorm:"type:varchar(20);not null"`
	InitiatedAt        time.Time  `gorm:"not null"`
	CompletedAt        *time.Time `gorm:"column:completed_at"`
	RefundedAt         *time.Time `gorm:"column:refunded_at"`
	Description        string     `gorm:"type:text;not null"`
	FailureReason      string     `gorm:"type:text;not null"`
}

type Receipt struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	PaymentID     string    `gorm:"type:uuid;not null;uniqueIndex"`
	ReceiptNumber string    `gorm:"type:varchar(32);not null;uniqueIndex"`
	GeneratedAt   time.Time `gorm:"not null"`
	SentViaEmail  bool      `gorm:"not null;default:false"`
	SentViaSMS    bool      `gorm:"column:sent_via_sms;not null;default:false"`
}

func (Receipt) TableName() string {
	return "payment_receipts"
}

// PaymentView is a payment joined with the owning member for listings.
type PaymentView struct {
	Payment
	MembershipID string
	MemberName   string
}

// MemberRef is what billing needs to know about a payment's member.
type MemberRef struct {
	ID           string
	UserID       string
	MembershipID string
	FullName     string
}

type ListFilter struct {
	MemberID string
	Status   string
	Type     string
	Search   string
	Limit    int
	Offset   int
}

type InitiateInput struct {
	MemberID    string
	ActorID     string
	Type        string
	Amount      float64
	Currency    string
	PhoneNumber string
	Description string
}

type CompleteInput struct {
	PaymentID          string
	ActorID            string
	MpesaReceiptNumber string
}

type MarkPendingInput struct {
	PaymentID         string
	ActorID           string
	CheckoutRequestID string
	MerchantRequestID string
}

// CompleteResult is returned by Complete. Receipt is nil when nothing changed.
type CompleteResult struct {
	Affected int64
	Payment  *Payment
	Receipt  *Receipt
}

func IsValidType(value string) bool {
	switch value {
	case TypeRegistration, TypeRenewal, TypeLateFee:
		return true
	default:
		return false
	}
}

func IsValidStatus(value string) bool {
	switch value {
	case StatusInitiated, StatusPending, StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}
