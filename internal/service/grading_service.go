package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aula-labs/aula-go-api/internal/dto"
	"github.com/aula-labs/aula-go-api/internal/grading"
	"github.com/aula-labs/aula-go-api/internal/models"
	"github.com/aula-labs/aula-go-api/internal/observability"
	"github.com/aula-labs/aula-go-api/internal/repository"
)

// Sentinel errors for manual grading.
var (
	ErrNotShortAnswer     = errors.New("question is not a short-answer question")
	ErrScoreExceedsWeight = errors.New("assigned score exceeds question weight")
)

// GradingService applies teacher grading passes on top of the automatic
// scores: per-student short-answer credit and the bulk percentage mode.
type GradingService interface {
	GradeShortAnswers(ctx context.Context, assessmentID uint, payload dto.ShortAnswerGradeRequest) (dto.SubmissionResponse, error)
	GradeStudentsPercentage(ctx context.Context, payload dto.BulkPercentageGradeRequest) (dto.BulkGradeResult, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	assessments repository.AssessmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewGradingService builds a grading service.
func NewGradingService(submissions repository.SubmissionRepository, assessments repository.AssessmentRepository, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: submissions,
		assessments: assessments,
		validator:   validate,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/aula-labs/aula-go-api/internal/service/grading"),
	}
}

// GradeShortAnswers merges teacher-assigned credit into a submission's graded
// details and rebuilds the total under a row lock. The whole batch is
// validated before anything is written, so a bad entry leaves the submission
// untouched. Applying the same scores twice is a no-op.
func (s *gradingService) GradeShortAnswers(ctx context.Context, assessmentID uint, payload dto.ShortAnswerGradeRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	attrs := []attribute.KeyValue{
		attribute.Int("grading.assessment_id", int(assessmentID)),
		attribute.Int("grading.student_id", int(payload.StudentID)),
	}
	spanCtx, span := s.tracer.Start(ctx, "grading.short_answers", trace.WithAttributes(attrs...))
	defer span.End()

	assessment, err := s.assessments.GetByClassroom(spanCtx, assessmentID, payload.ClassroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssessmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if err := validateShortAnswerScores(assessment.Questions, payload.QuestionScores); err != nil {
		return dto.SubmissionResponse{}, err
	}

	current, err := s.submissions.GetByStudentAndAssessment(spanCtx, payload.StudentID, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	updated, err := s.submissions.UpdateLocked(spanCtx, current.ID, func(submission *models.Submission) error {
		if submission.GradedDetails == nil {
			submission.GradedDetails = datatypes.JSONMap{}
		}
		for key, score := range payload.QuestionScores {
			submission.GradedDetails[key] = score
		}

		submission.Score = grading.Recompute(assessment.Questions, submission.AnswerValues(), submission.GradedDetails)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	observability.GradingPasses().WithLabelValues(string(grading.ModeWeighted)).Inc()

	s.logger.Info().
		Uint("submission_id", updated.ID).
		Uint("assessment_id", assessmentID).
		Float64("score", updated.Score).
		Int("questions_graded", len(payload.QuestionScores)).
		Msg("short answers graded")

	updated.Assessment = assessment
	return dto.NewSubmissionResponse(updated), nil
}

// GradeStudentsPercentage rescores the named students' submissions with the
// percentage mode. Students without a submission are reported as skipped, not
// as an error, so one absent student cannot abort a classroom-wide pass.
func (s *gradingService) GradeStudentsPercentage(ctx context.Context, payload dto.BulkPercentageGradeRequest) (dto.BulkGradeResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BulkGradeResult{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "grading.bulk_percentage",
		trace.WithAttributes(
			attribute.Int("grading.assessment_id", int(payload.AssessmentID)),
			attribute.Int("grading.student_count", len(payload.StudentIDs)),
		))
	defer span.End()

	assessment, err := s.assessments.GetByID(spanCtx, payload.AssessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BulkGradeResult{}, ErrAssessmentNotFound
		}
		return dto.BulkGradeResult{}, err
	}

	result := dto.BulkGradeResult{Graded: make([]dto.SubmissionResponse, 0, len(payload.StudentIDs))}

	for _, studentID := range payload.StudentIDs {
		submission, err := s.submissions.GetByStudentAndAssessment(spanCtx, studentID, payload.AssessmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.Skipped = append(result.Skipped, studentID)
				continue
			}
			span.RecordError(err)
			return dto.BulkGradeResult{}, err
		}

		updated, err := s.submissions.UpdateLocked(spanCtx, submission.ID, func(sub *models.Submission) error {
			sub.Score = grading.PercentageScore(assessment.Questions, sub.AnswerValues())
			return nil
		})
		if err != nil {
			span.RecordError(err)
			return dto.BulkGradeResult{}, err
		}

		updated.Assessment = assessment
		result.Graded = append(result.Graded, dto.NewSubmissionResponse(updated))
	}

	observability.GradingPasses().WithLabelValues(string(grading.ModePercentage)).Inc()

	s.logger.Info().
		Uint("assessment_id", payload.AssessmentID).
		Int("graded", len(result.Graded)).
		Int("skipped", len(result.Skipped)).
		Msg("bulk percentage grading complete")

	return result, nil
}

// validateShortAnswerScores checks every entry against the assessment's
// question bank: the key must name a short-answer question of this assessment
// and the score must not exceed the question's weight. The offending question
// is named in the error.
func validateShortAnswerScores(questions []models.Question, scores map[string]float64) error {
	byKey := make(map[string]models.Question, len(questions))
	for _, question := range questions {
		byKey[grading.QuestionKey(question.ID)] = question
	}

	for key, score := range scores {
		question, ok := byKey[key]
		if !ok {
			return fmt.Errorf("%w: question %s", ErrUnknownQuestion, key)
		}
		if question.Type != models.QuestionTypeShortAnswer {
			return fmt.Errorf("%w: question %s", ErrNotShortAnswer, key)
		}
		if score > question.Weight {
			return fmt.Errorf("%w: question %s allows at most %.2f", ErrScoreExceedsWeight, key, question.Weight)
		}
	}

	return nil
}
