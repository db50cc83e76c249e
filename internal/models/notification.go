package models

import "time"

// Notification types emitted by the fan-out service.
const (
	NotificationTypeAnnouncement = "announcement"
	NotificationTypeAssessment   = "assessment"
	NotificationTypeSubmission   = "submission"
	NotificationTypeForum        = "forum"
	NotificationTypeClassroom    = "classroom"
)

// Notification is a persisted per-user message with an optional deep link.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;not null;index" json:"user_id"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	URL       string    `gorm:"size:512" json:"url"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
