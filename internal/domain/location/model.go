package location

import "time"

type Country struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Code      string    `gorm:"type:varchar(3);not null;uniqueIndex"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type Region struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	CountryID string    `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Code      string    `gorm:"type:varchar(10);not null"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type CountryInput struct {
	ID       string
	Name     string
	Code     string
	IsActive bool
	ActorID  string
}

type RegionInput struct {
	ID        string
	CountryID string
	Name      string
	Code      string
	IsActive  bool
	ActorID   string
}
