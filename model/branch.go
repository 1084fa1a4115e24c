package model

import (
	"time"
)

// Branch represents an academic program or department within a university
// (e.g., "Computer Science"). Branches own semesters, semesters own subjects.
type Branch struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	UniversityID uint      `gorm:"not null;index" json:"university_id"`
	Name         string    `gorm:"not null" json:"name"`

	// Relationships
	University University `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"university,omitempty"`
	Semesters  []Semester `gorm:"foreignKey:BranchID;constraint:OnDelete:CASCADE" json:"semesters,omitempty"`
	Students   []Student  `gorm:"foreignKey:BranchID;constraint:OnDelete:SET NULL" json:"-"`
}

// Semester represents a numbered academic term within a branch
type Semester struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	BranchID       uint      `gorm:"not null;index" json:"branch_id"`
	SemesterNumber int       `gorm:"not null" json:"semester_number"` // 1, 2, 3, etc.
	Name           string    `gorm:"type:varchar(150);not null" json:"name"`

	// Relationships
	Branch   Branch    `gorm:"foreignKey:BranchID;constraint:OnDelete:CASCADE" json:"branch,omitempty"`
	Subjects []Subject `gorm:"foreignKey:SemesterID;constraint:OnDelete:CASCADE" json:"subjects,omitempty"`
}

// Subject represents a course within a semester; owns documents and chats
type Subject struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	SemesterID uint      `gorm:"not null;index" json:"semester_id"`
	Name       string    `gorm:"not null" json:"name"`

	// Relationships
	Semester  Semester   `gorm:"foreignKey:SemesterID;constraint:OnDelete:CASCADE" json:"semester,omitempty"`
	Documents []Document `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
	Chats     []Chat     `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"-"`
}
