package user

import "time"

const (
	TypeMember = "member"
	TypeAdmin  = "admin"
	TypeStaff  = "staff"
)

const MinPasswordLength = 8

type User struct {
	ID           string     `gorm:"type:uuid;primaryKey"`
	Username     string     `gorm:"type:varchar(150);not null"`
	Email        string     `gorm:"type:varchar(254);not null"`
	PhoneNumber  *string    `gorm:"type:varchar(16)"`
	FirstName    string     `gorm:"type:varchar(150);not null"`
	LastName     string     `gorm:"type:varchar(150);not null"`
	UserType     string     `gorm:"type:varchar(10);not null"`
	PasswordHash string     `gorm:"type:text;not null"`
	IsVerified   bool       `gorm:"not null;default:false"`
	IsActive     bool       `gorm:"not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime"`
}

func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Username
	}
}

// IsStaff reports whether the user may act on other members' records.
func (u User) IsStaff() bool {
	return u.UserType == TypeAdmin || u.UserType == TypeStaff
}

type ListFilter struct {
	UserType   string
	IsVerified *bool
	IsActive   *bool
	Search     string
	Limit      int
	Offset     int
}

type RegisterInput struct {
	Username    string
	Email       string
	PhoneNumber string
	FirstName   string
	LastName    string
	Password    string
	UserType    string
	ActorID     string
}

func IsValidType(value string) bool {
	switch value {
	case TypeMember, TypeAdmin, TypeStaff:
		return true
	default:
		return false
	}
}
