package model

import (
	"time"
)

// University represents an educational institution managed by master admins
type University struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex" json:"name"`
	Code      *string   `gorm:"type:varchar(50);uniqueIndex" json:"code,omitempty"` // optional, e.g. "RGPV"; NULL when absent so universities without a code never collide
	City      string    `gorm:"type:varchar(100)" json:"city,omitempty"`
	State     string    `gorm:"type:varchar(100)" json:"state,omitempty"`
	Country   string    `gorm:"type:varchar(100)" json:"country,omitempty"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Branches []Branch          `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"branches,omitempty"`
	Admins   []UniversityAdmin `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"-"`
	Students []Student         `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"-"`
}
