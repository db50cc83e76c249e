package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission records a student's answers for one assessment. At most one
// submission exists per (student, assessment) pair; the composite unique
// index is the sole concurrency guard for duplicate attempts.
type Submission struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	StudentID     uint              `gorm:"not null;uniqueIndex:idx_submission_student_assessment" json:"student_id"`
	AssessmentID  uint              `gorm:"not null;uniqueIndex:idx_submission_student_assessment" json:"assessment_id"`
	Answers       datatypes.JSONMap `gorm:"type:json" json:"answers"`
	Score         float64           `gorm:"not null;default:0" json:"score"`
	GradedDetails datatypes.JSONMap `gorm:"type:json" json:"graded_details"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Student       Student           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Assessment    Assessment        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assessment"`
}

// AnswerValues converts the stored JSON answer map into plain strings keyed
// by question identifier.
func (s Submission) AnswerValues() map[string]string {
	values := make(map[string]string, len(s.Answers))
	for key, raw := range s.Answers {
		if text, ok := raw.(string); ok {
			values[key] = text
		}
	}
	return values
}
