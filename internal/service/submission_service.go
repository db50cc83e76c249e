package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

// Sentinel errors surfaced to the handler layer.
var (
	ErrStudentNotFound        = errors.New("student not found")
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrDuplicateSubmission    = errors.New("submission already exists for this assessment")
	ErrAssessmentNotPublished = errors.New("assessment is not published")
	ErrUnknownQuestion        = errors.New("answer references a question outside this assessment")
	ErrAnswerCountMismatch    = errors.New("answer count mismatch")
)

// SubmissionService records student answers and grades them on arrival.
type SubmissionService interface {
	Create(ctx context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	GetByStudentAndAssessment(ctx context.Context, studentID, assessmentID uint) (dto.SubmissionResponse, error)
	ListByAssessment(ctx context.Context, assessmentID uint) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions   repository.SubmissionRepository
	assessments   repository.AssessmentRepository
	students      repository.StudentRepository
	classrooms    repository.ClassroomRepository
	notifications NotificationService
	validator     *validator.Validate
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewSubmissionService builds the submission recorder.
func NewSubmissionService(submissions repository.SubmissionRepository, assessments repository.AssessmentRepository, students repository.StudentRepository, classrooms repository.ClassroomRepository, notifications NotificationService, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions:   submissions,
		assessments:   assessments,
		students:      students,
		classrooms:    classrooms,
		notifications: notifications,
		validator:     validate,
		logger:        logger.With().Str("component", "submission_service").Logger(),
		tracer:        otel.Tracer("github.com/aula-labs/aula-go-api/internal/service/submission"),
		now:           time.Now,
	}
}

// Create validates the attempt, grades the objective questions and persists
// the result. Checks run in a fixed order so clients get a stable error for
// a given bad request: assessment in classroom, published, deadline, student,
// duplicate, answer set.
func (s *submissionService) Create(ctx context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	attrs := []attribute.KeyValue{
		attribute.Int("submission.student_id", int(payload.StudentID)),
		attribute.Int("submission.assessment_id", int(payload.AssessmentID)),
	}
	spanCtx, span := s.tracer.Start(ctx, "submissions.create", trace.WithAttributes(attrs...))
	defer span.End()

	assessment, err := s.assessments.GetByClassroom(spanCtx, payload.AssessmentID, payload.ClassroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.SubmissionsRecorded().WithLabelValues("rejected").Inc()
			return dto.SubmissionResponse{}, ErrAssessmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if !assessment.IsPublished {
		observability.SubmissionsRecorded().WithLabelValues("rejected").Inc()
		return dto.SubmissionResponse{}, ErrAssessmentNotPublished
	}

	if assessment.IsPastDeadline(s.now()) {
		observability.SubmissionsRecorded().WithLabelValues("rejected").Inc()
		return dto.SubmissionResponse{}, ErrAssessmentDeadlinePassed
	}

	student, err := s.students.GetByID(spanCtx, payload.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.SubmissionsRecorded().WithLabelValues("rejected").Inc()
			return dto.SubmissionResponse{}, ErrStudentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if _, err := s.submissions.GetByStudentAndAssessment(spanCtx, payload.StudentID, payload.AssessmentID); err == nil {
		observability.SubmissionsRecorded().WithLabelValues("duplicate").Inc()
		return dto.SubmissionResponse{}, ErrDuplicateSubmission
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	if err := validateAnswerSet(assessment.Questions, payload.Answers); err != nil {
		observability.SubmissionsRecorded().WithLabelValues("rejected").Inc()
		return dto.SubmissionResponse{}, err
	}

	result := grading.Grade(assessment.Questions, payload.Answers)

	answers := make(datatypes.JSONMap, len(payload.Answers))
	for key, value := range payload.Answers {
		answers[key] = value
	}

	submission := models.Submission{
		StudentID:    payload.StudentID,
		AssessmentID: payload.AssessmentID,
		Answers:      answers,
		Score:        result.Total,
	}

	if err := s.submissions.Create(spanCtx, &submission); err != nil {
		// Two racing attempts can both pass the read check above; the unique
		// index on (student_id, assessment_id) decides the loser.
		if isDuplicateKey(err) {
			observability.SubmissionsRecorded().WithLabelValues("duplicate").Inc()
			return dto.SubmissionResponse{}, ErrDuplicateSubmission
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsRecorded().WithLabelValues("accepted").Inc()
	observability.GradingPasses().WithLabelValues(string(grading.ModeWeighted)).Inc()

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("student_id", payload.StudentID).
		Uint("assessment_id", payload.AssessmentID).
		Float64("score", submission.Score).
		Msg("submission recorded")

	s.notifyTeacher(spanCtx, assessment, student)

	submission.Student = student
	submission.Assessment = assessment

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) GetByStudentAndAssessment(ctx context.Context, studentID, assessmentID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByStudentAndAssessment(ctx, studentID, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListByAssessment(ctx context.Context, assessmentID uint) ([]dto.SubmissionResponse, error) {
	if _, err := s.assessments.GetByID(ctx, assessmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}

	submissions, err := s.submissions.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) notifyTeacher(ctx context.Context, assessment models.Assessment, student models.Student) {
	if s.notifications == nil {
		return
	}

	classroom, err := s.classrooms.GetByID(ctx, assessment.ClassroomID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("classroom_id", assessment.ClassroomID).Msg("failed to resolve teacher for submission notification")
		return
	}

	_, err = s.notifications.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  classroom.Teacher.UserID,
		Type:    models.NotificationTypeSubmission,
		Message: fmt.Sprintf("%s submitted %q", student.Name, assessment.Name),
		URL:     fmt.Sprintf("/classrooms/%d/assessments/%d/submissions", assessment.ClassroomID, assessment.ID),
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("assessment_id", assessment.ID).Msg("failed to publish submission notification")
	}
}

// validateAnswerSet requires exactly one answer per question of the
// assessment: no missing answers, no extras, no keys referencing foreign
// questions.
func validateAnswerSet(questions []models.Question, answers map[string]string) error {
	if len(answers) != len(questions) {
		return fmt.Errorf("%w: got %d answers for %d questions", ErrAnswerCountMismatch, len(answers), len(questions))
	}

	known := make(map[string]struct{}, len(questions))
	for _, question := range questions {
		known[grading.QuestionKey(question.ID)] = struct{}{}
	}

	for key := range answers {
		if _, ok := known[key]; !ok {
			return fmt.Errorf("%w: question %s", ErrUnknownQuestion, key)
		}
	}

	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint") || strings.Contains(message, "duplicate key")
}
