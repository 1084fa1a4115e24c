package model

import (
	"time"
)

// Principal roles carried inside JWT claims
const (
	RoleMasterAdmin     = "master_admin"
	RoleUniversityAdmin = "university_admin"
	RoleStudent         = "student"
)

// MasterAdmin manages universities across the whole platform
type MasterAdmin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Email        string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
}

// UniversityAdmin manages the catalog and roster of a single university
type UniversityAdmin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Email        string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	UniversityID uint      `gorm:"not null;index" json:"university_id"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`

	// Relationships
	University University `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"university,omitempty"`
}
