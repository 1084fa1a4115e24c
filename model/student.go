package model

import (
	"time"
)

// Student represents a provisioned student account. BatchYear is business
// data fixed at provisioning time; no update path exists for it.
type Student struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Email        string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"` // Never expose password in JSON
	UniversityID uint      `gorm:"not null;index" json:"university_id"`
	BranchID     *uint     `gorm:"index" json:"branch_id,omitempty"`
	BatchYear    *int      `json:"batch_year,omitempty"` // e.g., 2024, 2025
	IsActive     bool      `gorm:"default:true" json:"is_active"`

	// Relationships
	University University `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"-"`
	Branch     *Branch    `gorm:"foreignKey:BranchID;constraint:OnDelete:SET NULL" json:"branch,omitempty"`
	Chats      []Chat     `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}
