package audit

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionSuspend = "suspend"
	ActionRenew   = "renew"
	ActionPayment = "payment"
	ActionLogin   = "login"
	ActionLogout  = "logout"
)

// Entry is one append-only audit record.
type Entry struct {
	ID          string            `gorm:"type:uuid;primaryKey"`
	ActorID     *string           `gorm:"type:uuid"`
	Action      string            `gorm:"type:varchar(20);not null"`
	ModelName   string            `gorm:"type:varchar(100);not null"`
	ObjectID    string            `gorm:"type:varchar(100);not null"`
	Description string            `gorm:"type:text;not null"`
	IPAddress   *string           `gorm:"type:varchar(45)"`
	UserAgent   string            `gorm:"type:text;not null"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null"`
	CreatedAt   time.Time         `gorm:"not null"`
}

func (Entry) TableName() string {
	return "audit_logs"
}

type ListFilter struct {
	Action    string
	ModelName string
	ObjectID  string
	ActorID   string
	Search    string
	Limit     int
	Offset    int
}

var actions = map[string]struct{}{
	ActionCreate:  {},
	ActionUpdate:  {},
	ActionDelete:  {},
	ActionApprove: {},
	ActionReject:  {},
	ActionSuspend: {},
	ActionRenew:   {},
	ActionPayment: {},
	ActionLogin:   {},
	ActionLogout:  {},
}

func IsValidAction(action string) bool {
	_, ok := actions[action]
	return ok
}
