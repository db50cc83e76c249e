package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aula-labs/aula-go-api/internal/dto"
	"github.com/aula-labs/aula-go-api/internal/models"
	"github.com/aula-labs/aula-go-api/internal/repository"
)

// Sentinel errors surfaced to the handler layer.
var (
	ErrAssessmentNotFound         = errors.New("assessment not found")
	ErrClassroomNotFound          = errors.New("classroom not found")
	ErrAssessmentAlreadyPublished = errors.New("assessment already published")
	ErrAssessmentDeadlinePassed   = errors.New("assessment deadline has passed")
)

// AssessmentService exposes assessment lifecycle use cases.
type AssessmentService interface {
	Create(ctx context.Context, classroomID uint, payload dto.AssessmentCreateRequest) (dto.AssessmentResponse, error)
	Get(ctx context.Context, id uint) (dto.AssessmentResponse, error)
	ListByClassroom(ctx context.Context, classroomID uint) ([]dto.AssessmentResponse, error)
	Publish(ctx context.Context, id uint) (dto.AssessmentResponse, error)
	Unpublish(ctx context.Context, id uint) (dto.AssessmentResponse, error)
	Delete(ctx context.Context, id uint) error
}

type assessmentService struct {
	assessments   repository.AssessmentRepository
	classrooms    repository.ClassroomRepository
	notifications NotificationService
	validator     *validator.Validate
	logger        zerolog.Logger
	now           func() time.Time
}

// NewAssessmentService builds an assessment service.
func NewAssessmentService(assessments repository.AssessmentRepository, classrooms repository.ClassroomRepository, notifications NotificationService, validate *validator.Validate, logger zerolog.Logger) AssessmentService {
	return &assessmentService{
		assessments:   assessments,
		classrooms:    classrooms,
		notifications: notifications,
		validator:     validate,
		logger:        logger.With().Str("component", "assessment_service").Logger(),
		now:           time.Now,
	}
}

func (s *assessmentService) Create(ctx context.Context, classroomID uint, payload dto.AssessmentCreateRequest) (dto.AssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentResponse{}, err
	}

	if !payload.Deadline.After(s.now()) {
		return dto.AssessmentResponse{}, fmt.Errorf("deadline must be in the future")
	}

	if _, err := s.classrooms.GetByID(ctx, classroomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrClassroomNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	assessment := models.Assessment{
		Name:        payload.Name,
		Description: payload.Description,
		Tag:         payload.Tag,
		ClassroomID: classroomID,
		Deadline:    payload.Deadline,
	}

	if err := s.assessments.Create(ctx, &assessment); err != nil {
		return dto.AssessmentResponse{}, err
	}

	s.logger.Info().
		Uint("assessment_id", assessment.ID).
		Uint("classroom_id", classroomID).
		Msg("assessment created")

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) Get(ctx context.Context, id uint) (dto.AssessmentResponse, error) {
	assessment, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) ListByClassroom(ctx context.Context, classroomID uint) ([]dto.AssessmentResponse, error) {
	assessments, err := s.assessments.ListByClassroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssessmentResponseSlice(assessments), nil
}

// Publish flips the assessment visible to students and fans a notification
// out to every student enrolled in the classroom. Publishing an already
// published or expired assessment is rejected.
func (s *assessmentService) Publish(ctx context.Context, id uint) (dto.AssessmentResponse, error) {
	assessment, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	if assessment.IsPublished {
		return dto.AssessmentResponse{}, ErrAssessmentAlreadyPublished
	}
	if assessment.IsPastDeadline(s.now()) {
		return dto.AssessmentResponse{}, ErrAssessmentDeadlinePassed
	}

	assessment.IsPublished = true
	if err := s.assessments.Update(ctx, &assessment); err != nil {
		return dto.AssessmentResponse{}, err
	}

	s.notifyStudents(ctx, assessment)

	s.logger.Info().Uint("assessment_id", assessment.ID).Msg("assessment published")

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) Unpublish(ctx context.Context, id uint) (dto.AssessmentResponse, error) {
	assessment, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	if assessment.IsPublished {
		assessment.IsPublished = false
		if err := s.assessments.Update(ctx, &assessment); err != nil {
			return dto.AssessmentResponse{}, err
		}
		s.logger.Info().Uint("assessment_id", assessment.ID).Msg("assessment unpublished")
	}

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) Delete(ctx context.Context, id uint) error {
	if _, err := s.assessments.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssessmentNotFound
		}
		return err
	}

	if err := s.assessments.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("assessment_id", id).Msg("assessment deleted")
	return nil
}

// notifyStudents delivers a publish notification to the classroom roster.
// Failures are logged, never surfaced; the publish itself already succeeded.
func (s *assessmentService) notifyStudents(ctx context.Context, assessment models.Assessment) {
	if s.notifications == nil {
		return
	}

	students, err := s.classrooms.ListStudents(ctx, assessment.ClassroomID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("assessment_id", assessment.ID).Msg("failed to load roster for publish notification")
		return
	}

	payloads := make([]dto.NotificationCreateRequest, 0, len(students))
	for _, student := range students {
		payloads = append(payloads, dto.NotificationCreateRequest{
			UserID:  student.UserID,
			Type:    models.NotificationTypeAssessment,
			Message: fmt.Sprintf("New assessment %q is open until %s", assessment.Name, assessment.Deadline.Format(time.RFC1123)),
			URL:     fmt.Sprintf("/classrooms/%d/assessments/%d", assessment.ClassroomID, assessment.ID),
		})
	}

	if err := s.notifications.PublishBatch(ctx, payloads); err != nil {
		s.logger.Warn().Err(err).Uint("assessment_id", assessment.ID).Msg("failed to fan out publish notification")
	}
}
