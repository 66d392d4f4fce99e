package membership

import (
	"strings"
	"time"

	"membership-app-go/internal/domain/billing"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusSuspended = "suspended"
	StatusExpired   = "expired"
)

const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderOther  = "O"
)

const (
	DocumentIDCopy         = "id_copy"
	DocumentPassportPhoto  = "passport_photo"
	DocumentCertificate    = "certificate"
	DocumentRecommendation = "recommendation"
	DocumentOther          = "other"
)

const (
	RenewalPendingPayment = "pending_payment"
	RenewalCompleted      = "completed"
	RenewalExpired        = "expired"
)

// DaysPerMonth is the policy month used for expiry arithmetic. Expiry is
// date + duration_months*30 days, not calendar months.
const DaysPerMonth = 30

const DefaultDurationMonths = 12

type Category struct {
	ID              string    `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description     string    `gorm:"type:text;not null"`
	RegistrationFee float64   `gorm:"type:numeric(10,2);not null"`
	AnnualFee       float64   `gorm:"type:numeric(10,2);not null"`
	Benefits        string    `gorm:"type:text;not null"`
	DurationMonths  int       `gorm:"not null;default:12"`
	IsActive        bool      `gorm:"not null;default:true"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (Category) TableName() string {
	return "membership_categories"
}

type Member struct {
	ID               string     `gorm:"type:uuid;primaryKey"`
	UserID           string     `gorm:"type:uuid;not null;uniqueIndex"`
	CategoryID       string     `gorm:"type:uuid;not null"`
	CountryID        string     `gorm:"type:uuid;not null"`
	RegionID         *string    `gorm:"type:uuid"`
	MembershipID     string     `gorm:"type:varchar(32);not null;uniqueIndex"`
	FirstName        string     `gorm:"type:varchar(100);not null"`
	MiddleName       string     `gorm:"type:varchar(100);not null"`
	LastName         string     `gorm:"type:varchar(100);not null"`
	DateOfBirth      time.Time  `gorm:"type:date;not null"`
	Gender           string     `gorm:"type:varchar(1);not null"`
	NationalID       string     `gorm:"type:varchar(20);not null;uniqueIndex"`
	Email            string     `gorm:"type:varchar(254);not null"`
	PhoneNumber      string     `gorm:"type:varchar(16);not null"`
	AlternativePhone string     `gorm:"type:varchar(16);not null"`
	PostalAddress    string     `gorm:"type:text;not null"`
	PhysicalAddress  string     `gorm:"type:text;not null"`
	Occupation       string     `gorm:"type:varchar(100);not null"`
	Organization     string     `gorm:"type:varchar(200);not null"`
	Status           string     `gorm:"type:varchar(20);not null"`
	RegistrationDate time.Time  `gorm:"not null"`
	ApprovalDate     *time.Time `gorm:"column:approval_date"`
	ExpiryDate       *time.Time `gorm:"type:date"`
	ApprovedBy       *string    `gorm:"type:uuid"`
	RejectionReason  string     `gorm:"type:text;not null"`
	Notes            string     `gorm:"type:text;not null"`
	CreatedAt        time.Time  `gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime"`
}

func (m Member) FullName() string {
	parts := []string{m.FirstName}
	if m.MiddleName != "" {
		parts = append(parts, m.MiddleName)
	}
	parts = append(parts, m.LastName)
	return strings.Join(parts, " ")
}

// IsActive reports whether the membership is approved and not past its
// expiry date on the day of now.
func (m Member) IsActive(now time.Time) bool {
	if m.Status != StatusApproved {
		return false
	}
	if m.ExpiryDate == nil {
		return true
	}
	return !m.ExpiryDate.Before(Today(now))
}

// EffectiveStatus is the stored status with expiry applied: a membership
// whose expiry date has passed reads as expired.
func (m Member) EffectiveStatus(now time.Time) string {
	switch m.Status {
	case StatusApproved, StatusSuspended:
		if m.ExpiryDate != nil && m.ExpiryDate.Before(Today(now)) {
			return StatusExpired
		}
	}
	return m.Status
}

// DaysUntilExpiry returns the days left until expiry. ok is false when the
// member has no expiry date.
func (m Member) DaysUntilExpiry(now time.Time) (days int, ok bool) {
	if m.ExpiryDate == nil {
		return 0, false
	}
	return int(Today(*m.ExpiryDate).Sub(Today(now)).Hours() / 24), true
}

// MemberView is a member joined with its reference names for listings.
type MemberView struct {
	Member
	CategoryName string
	CountryName  string
	RegionName   string
}

type Document struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	MemberID    string    `gorm:"type:uuid;not null;index"`
	Type        string    `gorm:"column:document_type;type:varchar(20);not null"`
	FilePath    string    `gorm:"type:text;not null"`
	Description string    `gorm:"type:varchar(200);not null"`
	UploadedAt  time.Time `gorm:"not null"`
	IsVerified  bool      `gorm:"not null;default:false"`
}

func (Document) TableName() string {
	return "member_documents"
}

type Renewal struct {
	ID                 string     `gorm:"type:uuid;primaryKey"`
	MemberID           string     `gorm:"type:uuid;not null;index"`
	PaymentID          *string    `gorm:"type:uuid;uniqueIndex"`
	PreviousExpiryDate time.Time  `gorm:"type:date;not null"`
	NewExpiryDate      time.Time  `gorm:"type:date;not null"`
	RenewalFee         float64    `gorm:"type:numeric(10,2);not null"`
	Status             string     `gorm:"type:varchar(20);not null"`
	InitiatedAt        time.Time  `gorm:"not null"`
	CompletedAt        *time.Time `gorm:"column:completed_at"`
	Notes              string     `gorm:"type:text;not null"`
}

func (Renewal) TableName() string {
	return "membership_renewals"
}

type Certificate struct {
	ID                string    `gorm:"type:uuid;primaryKey"`
	MemberID          string    `gorm:"type:uuid;not null;index"`
	CertificateNumber string    `gorm:"type:varchar(32);not null;uniqueIndex"`
	IssueDate         time.Time `gorm:"type:date;not null"`
	ValidUntil        time.Time `gorm:"type:date;not null"`
	IsActive          bool      `gorm:"not null;default:true"`
	IssuedBy          *string   `gorm:"type:uuid"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

func (Certificate) TableName() string {
	return "membership_certificates"
}

type ListFilter struct {
	Status     string
	CategoryID string
	CountryID  string
	Search     string
	Limit      int
	Offset     int
}

type RegisterInput struct {
	UserID           string
	ActorID          string
	CategoryID       string
	CountryID        string
	RegionID         string
	FirstName        string
	MiddleName       string
	LastName         string
	DateOfBirth      time.Time
	Gender           string
	NationalID       string
	Email            string
	PhoneNumber      string
	AlternativePhone string
	PostalAddress    string
	PhysicalAddress  string
	Occupation       string
	Organization     string
}

type CreateCategoryInput struct {
	Name            string
	Description     string
	RegistrationFee float64
	AnnualFee       float64
	Benefits        string
	DurationMonths  int
	ActorID         string
}

type UpdateCategoryInput struct {
	ID              string
	Name            string
	Description     string
	RegistrationFee float64
	AnnualFee       float64
	Benefits        string
	DurationMonths  int
	IsActive        bool
	ActorID         string
}

type UploadDocumentInput struct {
	MemberID    string
	ActorID     string
	Type        string
	FileName    string
	Description string
	Size        int64
}

type InitiateRenewalInput struct {
	MemberID    string
	ActorID     string
	PhoneNumber string
	Notes       string
}

// RenewalStarted is returned by InitiateRenewal.
type RenewalStarted struct {
	Renewal Renewal
	Payment billing.Payment
}

func IsValidStatus(value string) bool {
	switch value {
	case StatusPending, StatusApproved, StatusRejected, StatusSuspended, StatusExpired:
		return true
	default:
		return false
	}
}

func IsValidGender(value string) bool {
	switch value {
	case GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}

func IsValidDocumentType(value string) bool {
	switch value {
	case DocumentIDCopy, DocumentPassportPhoto, DocumentCertificate, DocumentRecommendation, DocumentOther:
		return true
	default:
		return false
	}
}

// Today truncates t to its UTC calendar date.
func Today(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ExpiryFrom returns from + months*30 days.
func ExpiryFrom(from time.Time, months int) time.Time {
	return Today(from).AddDate(0, 0, months*DaysPerMonth)
}
