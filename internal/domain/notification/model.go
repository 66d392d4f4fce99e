package notification

import "time"

const (
	TypeRegistration   = "registration"
	TypeApproval       = "approval"
	TypePayment        = "payment"
	TypeRenewal        = "renewal"
	TypeExpiryReminder = "expiry_reminder"
	TypeSystem         = "system"
)

type Notification struct {
	ID          string     `gorm:"type:uuid;primaryKey"`
	RecipientID string     `gorm:"type:uuid;not null;index"`
	Type        string     `gorm:"column:notification_type;type:varchar(20);not null"`
	Title       string     `gorm:"type:varchar(200);not null"`
	Message     string     `gorm:"type:text;not null"`
	IsRead      bool       `gorm:"not null;default:false"`
	IsSentEmail bool       `gorm:"not null;default:false"`
	IsSentSMS   bool       `gorm:"column:is_sent_sms;not null;default:false"`
	CreatedAt   time.Time  `gorm:"not null"`
	ReadAt      *time.Time `gorm:"column:read_at"`
}

type ListFilter struct {
	RecipientID string
	UnreadOnly  bool
	Limit       int
	Offset      int
}
