package dto

import (
	"encoding/json"
	"time"

	"github.com/aula-labs/aula-go-api/internal/models"
)

// AssessmentCreateRequest describes the payload for creating an assessment
// inside a classroom.
type AssessmentCreateRequest struct {
	Name        string    `json:"name" validate:"required,min=1,max=255"`
	Description string    `json:"description"`
	Tag         string    `json:"tag" validate:"max=100"`
	Deadline    time.Time `json:"deadline" validate:"required"`
}

// QuestionCreateRequest adds a question to an assessment. For multiple-choice
// questions the answer options come as plain labels with the correct one
// referenced by index.
type QuestionCreateRequest struct {
	AssessmentID       uint     `json:"assessment_id" validate:"required,gt=0"`
	Text               string   `json:"text" validate:"required"`
	Weight             float64  `json:"weight" validate:"required,gt=0"`
	Type               string   `json:"question_type" validate:"omitempty,oneof=multiple_choice short_answer"`
	Tags               []string `json:"tags"`
	ModelAnswer        string   `json:"model_answer"`
	Answers            []string `json:"answers"`
	CorrectAnswerIndex *int     `json:"correct_answer_index"`
}

// AnswerResponse serializes a multiple-choice option.
type AnswerResponse struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	IsCorrect bool      `json:"is_correct"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuestionResponse serializes a question with its options.
type QuestionResponse struct {
	ID           uint             `json:"id"`
	AssessmentID uint             `json:"assessment_id"`
	Text         string           `json:"text"`
	Weight       float64          `json:"weight"`
	Type         string           `json:"question_type"`
	ModelAnswer  string           `json:"model_answer,omitempty"`
	Tags         []string         `json:"tags"`
	Answers      []AnswerResponse `json:"answers"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// AssessmentResponse serializes an assessment with its question bank.
type AssessmentResponse struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Tag         string             `json:"tag"`
	ClassroomID uint               `json:"classroom_id"`
	IsPublished bool               `json:"is_published"`
	Deadline    time.Time          `json:"deadline"`
	MaxScore    float64            `json:"max_score"`
	Questions   []QuestionResponse `json:"questions"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewAnswerResponse converts an Answer model into a DTO.
func NewAnswerResponse(model models.Answer) AnswerResponse {
	return AnswerResponse{
		ID:        model.ID,
		Text:      model.Text,
		IsCorrect: model.IsCorrect,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewQuestionResponse converts a Question model into a DTO.
func NewQuestionResponse(model models.Question) QuestionResponse {
	answers := make([]AnswerResponse, 0, len(model.Answers))
	for _, answer := range model.Answers {
		answers = append(answers, NewAnswerResponse(answer))
	}

	return QuestionResponse{
		ID:           model.ID,
		AssessmentID: model.AssessmentID,
		Text:         model.Text,
		Weight:       model.Weight,
		Type:         model.Type,
		ModelAnswer:  model.ModelAnswer,
		Tags:         decodeTags(model.Tags),
		Answers:      answers,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewAssessmentResponse converts an Assessment model into a DTO.
func NewAssessmentResponse(model models.Assessment) AssessmentResponse {
	questions := make([]QuestionResponse, 0, len(model.Questions))
	maxScore := 0.0
	for _, question := range model.Questions {
		questions = append(questions, NewQuestionResponse(question))
		maxScore += question.Weight
	}

	return AssessmentResponse{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		Tag:         model.Tag,
		ClassroomID: model.ClassroomID,
		IsPublished: model.IsPublished,
		Deadline:    model.Deadline,
		MaxScore:    maxScore,
		Questions:   questions,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewAssessmentResponseSlice converts assessment models into DTOs.
func NewAssessmentResponseSlice(models []models.Assessment) []AssessmentResponse {
	responses := make([]AssessmentResponse, 0, len(models))
	for _, assessment := range models {
		responses = append(responses, NewAssessmentResponse(assessment))
	}

	return responses
}

func decodeTags(raw []byte) []string {
	if len(raw) == 0 {
		return []string{}
	}

	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return []string{}
	}

	return tags
}
