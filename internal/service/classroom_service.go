package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aula-labs/aula-go-api/internal/dto"
	"github.com/aula-labs/aula-go-api/internal/models"
	"github.com/aula-labs/aula-go-api/internal/repository"
)

// ErrTeacherNotFound indicates the referenced teacher does not exist.
var ErrTeacherNotFound = errors.New("teacher not found")

// ErrBatchNotFound indicates the referenced batch does not exist.
var ErrBatchNotFound = errors.New("batch not found")

// ClassroomService manages classrooms, their batches and enrollment.
type ClassroomService interface {
	Create(ctx context.Context, payload dto.ClassroomCreateRequest) (dto.ClassroomResponse, error)
	Get(ctx context.Context, id uint) (dto.ClassroomResponse, error)
	List(ctx context.Context) ([]dto.ClassroomResponse, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]dto.ClassroomResponse, error)
	ListByStudent(ctx context.Context, studentID uint) ([]dto.ClassroomResponse, error)
	Search(ctx context.Context, query string) ([]dto.ClassroomResponse, error)
	Update(ctx context.Context, id uint, payload dto.ClassroomUpdateRequest) (dto.ClassroomResponse, error)
	Delete(ctx context.Context, id uint) error
	AddBatch(ctx context.Context, classroomID, batchID uint) (dto.ClassroomResponse, error)
	EnrollStudent(ctx context.Context, classroomID, studentID uint) error
	RemoveStudent(ctx context.Context, classroomID, studentID uint) error
	ListStudents(ctx context.Context, classroomID uint) ([]dto.StudentLite, error)
	CreateDepartment(ctx context.Context, payload dto.DepartmentCreateRequest) (dto.DepartmentResponse, error)
	CreateBatch(ctx context.Context, payload dto.BatchCreateRequest) (dto.BatchResponse, error)
}

type classroomService struct {
	classrooms    repository.ClassroomRepository
	teachers      repository.TeacherRepository
	students      repository.StudentRepository
	notifications NotificationService
	validator     *validator.Validate
	logger        zerolog.Logger
}

// NewClassroomService builds a classroom service.
func NewClassroomService(classrooms repository.ClassroomRepository, teachers repository.TeacherRepository, students repository.StudentRepository, notifications NotificationService, validate *validator.Validate, logger zerolog.Logger) ClassroomService {
	return &classroomService{
		classrooms:    classrooms,
		teachers:      teachers,
		students:      students,
		notifications: notifications,
		validator:     validate,
		logger:        logger.With().Str("component", "classroom_service").Logger(),
	}
}

func (s *classroomService) Create(ctx context.Context, payload dto.ClassroomCreateRequest) (dto.ClassroomResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassroomResponse{}, err
	}

	teacher, err := s.teachers.GetByID(ctx, payload.TeacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassroomResponse{}, ErrTeacherNotFound
		}
		return dto.ClassroomResponse{}, err
	}

	classroom := models.Classroom{
		Name:        payload.Name,
		CourseNo:    payload.CourseNo,
		Description: payload.Description,
		TeacherID:   teacher.ID,
	}

	if err := s.classrooms.Create(ctx, &classroom); err != nil {
		return dto.ClassroomResponse{}, err
	}

	classroom.Teacher = teacher

	s.logger.Info().
		Uint("classroom_id", classroom.ID).
		Uint("teacher_id", teacher.ID).
		Msg("classroom created")

	return dto.NewClassroomResponse(classroom), nil
}

func (s *classroomService) Get(ctx context.Context, id uint) (dto.ClassroomResponse, error) {
	classroom, err := s.classrooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassroomResponse{}, ErrClassroomNotFound
		}
		return dto.ClassroomResponse{}, err
	}

	return dto.NewClassroomResponse(classroom), nil
}

func (s *classroomService) List(ctx context.Context) ([]dto.ClassroomResponse, error) {
	classrooms, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewClassroomResponseSlice(classrooms), nil
}

func (s *classroomService) ListByTeacher(ctx context.Context, teacherID uint) ([]dto.ClassroomResponse, error) {
	classrooms, err := s.classrooms.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	return dto.NewClassroomResponseSlice(classrooms), nil
}

func (s *classroomService) ListByStudent(ctx context.Context, studentID uint) ([]dto.ClassroomResponse, error) {
	classrooms, err := s.classrooms.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewClassroomResponseSlice(classrooms), nil
}

func (s *classroomService) Search(ctx context.Context, query string) ([]dto.ClassroomResponse, error) {
	if strings.TrimSpace(query) == "" {
		return s.List(ctx)
	}

	classrooms, err := s.classrooms.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	return dto.NewClassroomResponseSlice(classrooms), nil
}

func (s *classroomService) Update(ctx context.Context, id uint, payload dto.ClassroomUpdateRequest) (dto.ClassroomResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassroomResponse{}, err
	}

	classroom, err := s.classrooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassroomResponse{}, ErrClassroomNotFound
		}
		return dto.ClassroomResponse{}, err
	}

	if payload.Name != nil {
		classroom.Name = *payload.Name
	}
	if payload.CourseNo != nil {
		classroom.CourseNo = *payload.CourseNo
	}
	if payload.Description != nil {
		classroom.Description = *payload.Description
	}
	if payload.IsArchived != nil {
		classroom.IsArchived = *payload.IsArchived
	}

	if err := s.classrooms.Update(ctx, &classroom); err != nil {
		return dto.ClassroomResponse{}, err
	}

	s.logger.Info().Uint("classroom_id", classroom.ID).Msg("classroom updated")

	return dto.NewClassroomResponse(classroom), nil
}

func (s *classroomService) Delete(ctx context.Context, id uint) error {
	if _, err := s.classrooms.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassroomNotFound
		}
		return err
	}

	if err := s.classrooms.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("classroom_id", id).Msg("classroom deleted")
	return nil
}

func (s *classroomService) AddBatch(ctx context.Context, classroomID, batchID uint) (dto.ClassroomResponse, error) {
	if _, err := s.classrooms.GetBatch(ctx, batchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassroomResponse{}, ErrBatchNotFound
		}
		return dto.ClassroomResponse{}, err
	}

	if err := s.classrooms.AddBatch(ctx, classroomID, batchID); err != nil {
		return dto.ClassroomResponse{}, err
	}

	classroom, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		return dto.ClassroomResponse{}, err
	}

	s.logger.Info().
		Uint("classroom_id", classroomID).
		Uint("batch_id", batchID).
		Msg("batch attached to classroom")

	return dto.NewClassroomResponse(classroom), nil
}

// EnrollStudent adds the student to every batch of the classroom and sends
// them a welcome notification.
func (s *classroomService) EnrollStudent(ctx context.Context, classroomID, studentID uint) error {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	classroom, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassroomNotFound
		}
		return err
	}

	if err := s.classrooms.AddStudentToBatches(ctx, classroomID, studentID); err != nil {
		return err
	}

	s.logger.Info().
		Uint("classroom_id", classroomID).
		Uint("student_id", studentID).
		Msg("student enrolled")

	if s.notifications != nil {
		_, err := s.notifications.Publish(ctx, dto.NotificationCreateRequest{
			UserID:  student.UserID,
			Type:    models.NotificationTypeClassroom,
			Message: fmt.Sprintf("You were added to %q", classroom.Name),
			URL:     fmt.Sprintf("/classrooms/%d", classroom.ID),
		})
		if err != nil {
			s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to publish enrollment notification")
		}
	}

	return nil
}

func (s *classroomService) RemoveStudent(ctx context.Context, classroomID, studentID uint) error {
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	if err := s.classrooms.RemoveStudentFromBatches(ctx, classroomID, studentID); err != nil {
		return err
	}

	s.logger.Info().
		Uint("classroom_id", classroomID).
		Uint("student_id", studentID).
		Msg("student removed")

	return nil
}

func (s *classroomService) ListStudents(ctx context.Context, classroomID uint) ([]dto.StudentLite, error) {
	if _, err := s.classrooms.GetByID(ctx, classroomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		return nil, err
	}

	students, err := s.classrooms.ListStudents(ctx, classroomID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.StudentLite, 0, len(students))
	for _, student := range students {
		result = append(result, dto.StudentLite{ID: student.ID, Name: student.Name, Email: student.Email})
	}

	return result, nil
}

func (s *classroomService) CreateDepartment(ctx context.Context, payload dto.DepartmentCreateRequest) (dto.DepartmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DepartmentResponse{}, err
	}

	department := models.Department{
		Name:        payload.Name,
		Description: payload.Description,
	}

	if err := s.classrooms.CreateDepartment(ctx, &department); err != nil {
		return dto.DepartmentResponse{}, err
	}

	s.logger.Info().Uint("department_id", department.ID).Str("name", department.Name).Msg("department created")

	return dto.DepartmentResponse{
		ID:          department.ID,
		Name:        department.Name,
		Description: department.Description,
	}, nil
}

func (s *classroomService) CreateBatch(ctx context.Context, payload dto.BatchCreateRequest) (dto.BatchResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BatchResponse{}, err
	}

	batch := models.Batch{
		Section:      payload.Section,
		Year:         payload.Year,
		DepartmentID: payload.DepartmentID,
	}

	if err := s.classrooms.CreateBatch(ctx, &batch); err != nil {
		return dto.BatchResponse{}, err
	}

	stored, err := s.classrooms.GetBatch(ctx, batch.ID)
	if err != nil {
		return dto.BatchResponse{}, err
	}

	s.logger.Info().Uint("batch_id", stored.ID).Str("section", stored.Section).Int("year", stored.Year).Msg("batch created")

	return dto.BatchResponse{
		ID:         stored.ID,
		Section:    stored.Section,
		Year:       stored.Year,
		Department: stored.Department.Name,
	}, nil
}
