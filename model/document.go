package model

import (
	"time"
)

// SourceType tags how a material document entered the system
type SourceType string

const (
	SourceTypeManual SourceType = "manual"
	SourceTypePDF    SourceType = "pdf"
)

// DocumentStatus is derived from the presence of a blob key, never stored
type DocumentStatus string

const (
	DocumentStatusPending DocumentStatus = "pending"
	DocumentStatusIndexed DocumentStatus = "indexed"
)

// Document represents a course material uploaded for a subject.
// BlobKey is empty until the file lands in the blob store; an empty key
// means the document is still pending.
type Document struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	SubjectID  uint       `gorm:"not null;index" json:"subject_id"`
	Title      string     `gorm:"not null" json:"title"`
	BlobKey    string     `gorm:"type:varchar(512)" json:"blob_key,omitempty"`
	SourceType SourceType `gorm:"type:varchar(20);not null;default:'manual'" json:"source_type"`
	FileSize   int64      `gorm:"default:0" json:"file_size"`
	PageCount  int        `gorm:"default:0" json:"page_count"`

	// Relationships
	Subject Subject `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"subject,omitempty"`
}

// Status reports indexed once the blob key is set, pending otherwise
func (d Document) Status() DocumentStatus {
	if d.BlobKey == "" {
		return DocumentStatusPending
	}
	return DocumentStatusIndexed
}
