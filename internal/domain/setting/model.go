package setting

import "time"

type Setting struct {
	Key         string    `gorm:"type:varchar(100);primaryKey"`
	Value       string    `gorm:"type:text;not null"`
	Description string    `gorm:"type:text;not null"`
	IsActive    bool      `gorm:"not null;default:true"`
	UpdatedBy   *string   `gorm:"type:uuid"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (Setting) TableName() string {
	return "system_settings"
}

type UpsertInput struct {
	Key         string
	Value       string
	Description string
	IsActive    *bool
	ActorID     string
}
