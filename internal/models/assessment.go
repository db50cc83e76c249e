package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question types supported by the assessment engine.
const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeShortAnswer    = "short_answer"
)

// Assessment is a gradable unit of questions scoped to a classroom.
type Assessment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Tag         string     `gorm:"size:100" json:"tag"`
	ClassroomID uint       `gorm:"not null;index" json:"classroom_id"`
	IsPublished bool       `gorm:"not null;default:false" json:"is_published"`
	Deadline    time.Time  `gorm:"not null" json:"deadline"`
	Questions   []Question `gorm:"constraint:OnDelete:CASCADE" json:"questions"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsPastDeadline reports whether submissions are no longer accepted.
func (a Assessment) IsPastDeadline(reference time.Time) bool {
	return reference.After(a.Deadline)
}

// Question belongs to exactly one assessment. Weight is the maximum credit
// the question contributes to the assessment's raw score.
type Question struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AssessmentID uint           `gorm:"not null;index" json:"assessment_id"`
	Text         string         `gorm:"type:text;not null" json:"text"`
	Weight       float64        `gorm:"not null;default:1" json:"weight"`
	Type         string         `gorm:"size:20;not null;default:multiple_choice" json:"question_type"`
	ModelAnswer  string         `gorm:"type:text" json:"model_answer"`
	Tags         datatypes.JSON `gorm:"type:json" json:"tags"`
	Answers      []Answer       `gorm:"constraint:OnDelete:CASCADE" json:"answers"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// CorrectAnswer returns the option marked correct, or nil when none exists.
func (q Question) CorrectAnswer() *Answer {
	for i := range q.Answers {
		if q.Answers[i].IsCorrect {
			return &q.Answers[i]
		}
	}
	return nil
}

// Answer is a selectable option of a multiple-choice question. Exactly one
// answer per question carries IsCorrect; that is enforced at creation time by
// the question service, not by a database constraint.
type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	Text       string    `gorm:"size:255;not null" json:"text"`
	IsCorrect  bool      `gorm:"not null;default:false" json:"is_correct"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
