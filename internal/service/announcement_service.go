package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aula-labs/aula-go-api/internal/dto"
	"github.com/aula-labs/aula-go-api/internal/models"
	"github.com/aula-labs/aula-go-api/internal/repository"
)

// ErrAnnouncementNotFound indicates the requested announcement does not exist.
var ErrAnnouncementNotFound = errors.New("announcement not found")

// AnnouncementService posts classroom notices and fans them out.
type AnnouncementService interface {
	Create(ctx context.Context, classroomID uint, payload dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error)
	Get(ctx context.Context, id uint) (dto.AnnouncementResponse, error)
	ListByClassroom(ctx context.Context, classroomID uint) ([]dto.AnnouncementResponse, error)
	AddAttachment(ctx context.Context, announcementID uint, payload dto.AttachmentCreateRequest) (dto.AnnouncementResponse, error)
	Delete(ctx context.Context, id uint) error
}

type announcementService struct {
	announcements repository.AnnouncementRepository
	classrooms    repository.ClassroomRepository
	notifications NotificationService
	validator     *validator.Validate
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
}

// NewAnnouncementService builds an announcement service.
func NewAnnouncementService(announcements repository.AnnouncementRepository, classrooms repository.ClassroomRepository, notifications NotificationService, validate *validator.Validate, logger zerolog.Logger) AnnouncementService {
	return &announcementService{
		announcements: announcements,
		classrooms:    classrooms,
		notifications: notifications,
		validator:     validate,
		sanitizer:     bluemonday.UGCPolicy(),
		logger:        logger.With().Str("component", "announcement_service").Logger(),
	}
}

func (s *announcementService) Create(ctx context.Context, classroomID uint, payload dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	classroom, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnnouncementResponse{}, ErrClassroomNotFound
		}
		return dto.AnnouncementResponse{}, err
	}

	if payload.BatchID != nil {
		if err := s.batchBelongsToClassroom(classroom, *payload.BatchID); err != nil {
			return dto.AnnouncementResponse{}, err
		}
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if content == "" {
		return dto.AnnouncementResponse{}, errors.New("announcement content empty after sanitization")
	}

	announcement := models.Announcement{
		Title:       payload.Title,
		Content:     content,
		ClassroomID: classroomID,
		BatchID:     payload.BatchID,
	}

	if err := s.announcements.Create(ctx, &announcement); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	s.logger.Info().
		Uint("announcement_id", announcement.ID).
		Uint("classroom_id", classroomID).
		Msg("announcement created")

	s.notifyRoster(ctx, classroom, announcement)

	return dto.NewAnnouncementResponse(announcement), nil
}

func (s *announcementService) Get(ctx context.Context, id uint) (dto.AnnouncementResponse, error) {
	announcement, err := s.announcements.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnnouncementResponse{}, ErrAnnouncementNotFound
		}
		return dto.AnnouncementResponse{}, err
	}

	return dto.NewAnnouncementResponse(announcement), nil
}

func (s *announcementService) ListByClassroom(ctx context.Context, classroomID uint) ([]dto.AnnouncementResponse, error) {
	if _, err := s.classrooms.GetByID(ctx, classroomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		return nil, err
	}

	announcements, err := s.announcements.ListByClassroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}

	return dto.NewAnnouncementResponseSlice(announcements), nil
}

func (s *announcementService) AddAttachment(ctx context.Context, announcementID uint, payload dto.AttachmentCreateRequest) (dto.AnnouncementResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	if _, err := s.announcements.GetByID(ctx, announcementID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnnouncementResponse{}, ErrAnnouncementNotFound
		}
		return dto.AnnouncementResponse{}, err
	}

	attachment := models.Attachment{
		AnnouncementID: announcementID,
		FileURL:        payload.FileURL,
	}

	if err := s.announcements.AddAttachment(ctx, &attachment); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	announcement, err := s.announcements.GetByID(ctx, announcementID)
	if err != nil {
		return dto.AnnouncementResponse{}, err
	}

	return dto.NewAnnouncementResponse(announcement), nil
}

func (s *announcementService) Delete(ctx context.Context, id uint) error {
	if _, err := s.announcements.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAnnouncementNotFound
		}
		return err
	}

	if err := s.announcements.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("announcement_id", id).Msg("announcement deleted")
	return nil
}

func (s *announcementService) batchBelongsToClassroom(classroom models.Classroom, batchID uint) error {
	for _, batch := range classroom.Batches {
		if batch.ID == batchID {
			return nil
		}
	}
	return fmt.Errorf("%w: batch %d not attached to classroom %d", ErrBatchNotFound, batchID, classroom.ID)
}

// notifyRoster fans the announcement out to the affected students: the whole
// classroom, or just the named batch for batch-scoped notices.
func (s *announcementService) notifyRoster(ctx context.Context, classroom models.Classroom, announcement models.Announcement) {
	if s.notifications == nil {
		return
	}

	var students []models.Student
	var err error

	if announcement.BatchID != nil {
		batch, batchErr := s.classrooms.GetBatch(ctx, *announcement.BatchID)
		if batchErr != nil {
			s.logger.Warn().Err(batchErr).Uint("batch_id", *announcement.BatchID).Msg("failed to load batch for announcement fan-out")
			return
		}
		students = batch.Students
	} else {
		students, err = s.classrooms.ListStudents(ctx, classroom.ID)
		if err != nil {
			s.logger.Warn().Err(err).Uint("classroom_id", classroom.ID).Msg("failed to load roster for announcement fan-out")
			return
		}
	}

	payloads := make([]dto.NotificationCreateRequest, 0, len(students))
	for _, student := range students {
		payloads = append(payloads, dto.NotificationCreateRequest{
			UserID:  student.UserID,
			Type:    models.NotificationTypeAnnouncement,
			Message: fmt.Sprintf("New announcement in %q: %s", classroom.Name, announcement.Title),
			URL:     fmt.Sprintf("/classrooms/%d/announcements/%d", classroom.ID, announcement.ID),
		})
	}

	if err := s.notifications.PublishBatch(ctx, payloads); err != nil {
		s.logger.Warn().Err(err).Uint("announcement_id", announcement.ID).Msg("failed to fan out announcement notification")
	}
}
