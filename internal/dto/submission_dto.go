package dto

import (
	"time"

	"github.com/aula-labs/aula-go-api/internal/models"
)

// SubmissionCreateRequest is the inbound payload for recording a student's
// answers. Answers are keyed by question identifier; the legacy behaviour of
// zipping values against questions in sorted order is intentionally not
// supported.
type SubmissionCreateRequest struct {
	ClassroomID  uint              `json:"classroom_id" validate:"required,gt=0"`
	StudentID    uint              `json:"student_id" validate:"required,gt=0"`
	AssessmentID uint              `json:"assessment_id" validate:"required,gt=0"`
	Answers      map[string]string `json:"answers" validate:"required"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID            uint               `json:"id"`
	StudentID     uint               `json:"student_id"`
	AssessmentID  uint               `json:"assessment_id"`
	Answers       map[string]string  `json:"answers"`
	Score         float64            `json:"score"`
	GradedDetails map[string]float64 `json:"graded_details,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Student       StudentLite        `json:"student"`
	Assessment    AssessmentLite     `json:"assessment"`
}

// AssessmentLite summarizes an assessment in submission responses.
type AssessmentLite struct {
	ID       uint      `json:"id"`
	Name     string    `json:"name"`
	Tag      string    `json:"tag"`
	Deadline time.Time `json:"deadline"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		StudentID:    model.StudentID,
		AssessmentID: model.AssessmentID,
		Answers:      model.AnswerValues(),
		Score:        model.Score,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}

	if len(model.GradedDetails) > 0 {
		details := make(map[string]float64, len(model.GradedDetails))
		for key, raw := range model.GradedDetails {
			if value, ok := raw.(float64); ok {
				details[key] = value
			}
		}
		response.GradedDetails = details
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	if model.Assessment.ID != 0 {
		response.Assessment = AssessmentLite{
			ID:       model.Assessment.ID,
			Name:     model.Assessment.Name,
			Tag:      model.Assessment.Tag,
			Deadline: model.Assessment.Deadline,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
