package model

import (
	"time"

	"gorm.io/datatypes"
)

// Chat is a student conversation over a subject's materials. Chats are
// cascade targets: deleting a subject or a student removes them.
type Chat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	StudentID uint      `gorm:"not null;index" json:"student_id"`
	SubjectID *uint     `gorm:"index" json:"subject_id,omitempty"` // Nullable for branch-level chats
	Title     string    `gorm:"type:varchar(255)" json:"title,omitempty"`

	// Relationships
	Student  Student       `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Subject  *Subject      `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"subject,omitempty"`
	Messages []ChatMessage `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// ChatMessage sender values
const (
	ChatSenderUser = "USER"
	ChatSenderBot  = "BOT"
)

// ChatMessage is a single turn in a chat; Sources holds the retrieval
// citations the answer was grounded on, stored as JSON.
type ChatMessage struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	ChatID    uint           `gorm:"not null;index" json:"chat_id"`
	Sender    string         `gorm:"type:varchar(10);not null" json:"sender"` // USER or BOT
	Message   string         `gorm:"type:text;not null" json:"message"`
	Sources   datatypes.JSON `json:"sources,omitempty"`

	// Relationships
	Chat Chat `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"-"`
}
