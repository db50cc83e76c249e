package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aula-labs/aula-go-api/internal/dto"
	"github.com/aula-labs/aula-go-api/internal/models"
	"github.com/aula-labs/aula-go-api/internal/repository"
)

// ErrQuestionNotFound indicates the requested question does not exist.
var ErrQuestionNotFound = errors.New("question not found")

// ErrInvalidQuestionShape indicates the question payload violates the rules of
// its declared type.
var ErrInvalidQuestionShape = errors.New("invalid question shape")

// QuestionService manages the question bank of an assessment.
type QuestionService interface {
	Create(ctx context.Context, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error)
	Get(ctx context.Context, id uint) (dto.QuestionResponse, error)
	Delete(ctx context.Context, id uint) error
}

type questionService struct {
	questions   repository.QuestionRepository
	assessments repository.AssessmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewQuestionService builds a question service.
func NewQuestionService(questions repository.QuestionRepository, assessments repository.AssessmentRepository, validate *validator.Validate, logger zerolog.Logger) QuestionService {
	return &questionService{
		questions:   questions,
		assessments: assessments,
		validator:   validate,
		logger:      logger.With().Str("component", "question_service").Logger(),
	}
}

func (s *questionService) Create(ctx context.Context, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	questionType := payload.Type
	if questionType == "" {
		questionType = models.QuestionTypeMultipleChoice
	}

	if _, err := s.assessments.GetByID(ctx, payload.AssessmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, ErrAssessmentNotFound
		}
		return dto.QuestionResponse{}, err
	}

	question := models.Question{
		AssessmentID: payload.AssessmentID,
		Text:         payload.Text,
		Weight:       payload.Weight,
		Type:         questionType,
		ModelAnswer:  payload.ModelAnswer,
	}

	switch questionType {
	case models.QuestionTypeMultipleChoice:
		answers, err := buildChoiceOptions(payload.Answers, payload.CorrectAnswerIndex)
		if err != nil {
			return dto.QuestionResponse{}, err
		}
		question.Answers = answers
	case models.QuestionTypeShortAnswer:
		// Short-answer questions never carry selectable options; any supplied
		// labels are dropped rather than rejected.
		question.Answers = nil
	default:
		return dto.QuestionResponse{}, fmt.Errorf("%w: unknown question type %q", ErrInvalidQuestionShape, questionType)
	}

	if len(payload.Tags) > 0 {
		raw, err := json.Marshal(payload.Tags)
		if err != nil {
			return dto.QuestionResponse{}, err
		}
		question.Tags = datatypes.JSON(raw)
	}

	if err := s.questions.Create(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.logger.Info().
		Uint("question_id", question.ID).
		Uint("assessment_id", question.AssessmentID).
		Str("type", question.Type).
		Msg("question created")

	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) Get(ctx context.Context, id uint) (dto.QuestionResponse, error) {
	question, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResponse{}, ErrQuestionNotFound
		}
		return dto.QuestionResponse{}, err
	}

	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) Delete(ctx context.Context, id uint) error {
	if _, err := s.questions.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionNotFound
		}
		return err
	}

	if err := s.questions.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("question_id", id).Msg("question deleted")
	return nil
}

// buildChoiceOptions validates that a multiple-choice question has at least
// two options and exactly one marked correct.
func buildChoiceOptions(labels []string, correctIndex *int) ([]models.Answer, error) {
	if len(labels) < 2 {
		return nil, fmt.Errorf("%w: multiple-choice questions need at least two options", ErrInvalidQuestionShape)
	}
	if correctIndex == nil {
		return nil, fmt.Errorf("%w: multiple-choice questions need a correct option", ErrInvalidQuestionShape)
	}
	if *correctIndex < 0 || *correctIndex >= len(labels) {
		return nil, fmt.Errorf("%w: correct answer index %d out of range", ErrInvalidQuestionShape, *correctIndex)
	}

	answers := make([]models.Answer, 0, len(labels))
	for i, label := range labels {
		if label == "" {
			return nil, fmt.Errorf("%w: option %d is empty", ErrInvalidQuestionShape, i)
		}
		answers = append(answers, models.Answer{
			Text:      label,
			IsCorrect: i == *correctIndex,
		})
	}

	return answers, nil
}
