package models

import "time"

// ForumMessage is a message posted into a classroom discussion room.
type ForumMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ClassroomID uint      `gorm:"not null;index" json:"classroom_id"`
	SenderID    string    `gorm:"size:64;not null" json:"sender_id"`
	SenderRole  string    `gorm:"size:16;not null" json:"sender_role"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
