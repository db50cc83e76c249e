package dto

import (
	"time"

	"github.com/aula-labs/aula-go-api/internal/models"
)

// ClassroomCreateRequest describes the payload for creating a classroom.
type ClassroomCreateRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	CourseNo    string `json:"course_no" validate:"max=50"`
	Description string `json:"description"`
	TeacherID   uint   `json:"teacher_id" validate:"required,gt=0"`
}

// ClassroomUpdateRequest carries partial classroom updates.
type ClassroomUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	CourseNo    *string `json:"course_no" validate:"omitempty,max=50"`
	Description *string `json:"description"`
	IsArchived  *bool   `json:"is_archived"`
}

// DepartmentCreateRequest registers an academic department.
type DepartmentCreateRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description"`
}

// BatchCreateRequest registers a student cohort within a department.
type BatchCreateRequest struct {
	Section      string `json:"section" validate:"required,min=1,max=10"`
	Year         int    `json:"year" validate:"required,gte=2000,lte=2100"`
	DepartmentID uint   `json:"department_id" validate:"required,gt=0"`
}

// AnnouncementCreateRequest posts a notice into a classroom.
type AnnouncementCreateRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=255"`
	Content string `json:"content" validate:"required"`
	BatchID *uint  `json:"batch_id" validate:"omitempty,gt=0"`
}

// AttachmentCreateRequest links an externally stored file to an announcement.
type AttachmentCreateRequest struct {
	FileURL string `json:"file_url" validate:"required,url,max=512"`
}

// DepartmentResponse serializes a department record.
type DepartmentResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BatchResponse serializes a batch with its department.
type BatchResponse struct {
	ID         uint   `json:"id"`
	Section    string `json:"section"`
	Year       int    `json:"year"`
	Department string `json:"department"`
}

// ClassroomResponse serializes a classroom for API clients.
type ClassroomResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	CourseNo    string          `json:"course_no"`
	Description string          `json:"description"`
	TeacherID   uint            `json:"teacher_id"`
	TeacherName string          `json:"teacher_name,omitempty"`
	Batches     []BatchResponse `json:"batches"`
	IsArchived  bool            `json:"is_archived"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AttachmentResponse serializes an announcement attachment record.
type AttachmentResponse struct {
	ID      uint   `json:"id"`
	FileURL string `json:"file_url"`
}

// AnnouncementResponse serializes an announcement with its attachments.
type AnnouncementResponse struct {
	ID          uint                 `json:"id"`
	Title       string               `json:"title"`
	Content     string               `json:"content"`
	ClassroomID uint                 `json:"classroom_id"`
	BatchID     *uint                `json:"batch_id"`
	Attachments []AttachmentResponse `json:"attachments"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NewClassroomResponse converts a Classroom model into a DTO.
func NewClassroomResponse(model models.Classroom) ClassroomResponse {
	batches := make([]BatchResponse, 0, len(model.Batches))
	for _, batch := range model.Batches {
		batches = append(batches, BatchResponse{
			ID:         batch.ID,
			Section:    batch.Section,
			Year:       batch.Year,
			Department: batch.Department.Name,
		})
	}

	return ClassroomResponse{
		ID:          model.ID,
		Name:        model.Name,
		CourseNo:    model.CourseNo,
		Description: model.Description,
		TeacherID:   model.TeacherID,
		TeacherName: model.Teacher.Name,
		Batches:     batches,
		IsArchived:  model.IsArchived,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewClassroomResponseSlice converts classroom models into DTOs.
func NewClassroomResponseSlice(models []models.Classroom) []ClassroomResponse {
	responses := make([]ClassroomResponse, 0, len(models))
	for _, classroom := range models {
		responses = append(responses, NewClassroomResponse(classroom))
	}

	return responses
}

// NewAnnouncementResponse converts an Announcement model into a DTO.
func NewAnnouncementResponse(model models.Announcement) AnnouncementResponse {
	attachments := make([]AttachmentResponse, 0, len(model.Attachments))
	for _, attachment := range model.Attachments {
		attachments = append(attachments, AttachmentResponse{ID: attachment.ID, FileURL: attachment.FileURL})
	}

	return AnnouncementResponse{
		ID:          model.ID,
		Title:       model.Title,
		Content:     model.Content,
		ClassroomID: model.ClassroomID,
		BatchID:     model.BatchID,
		Attachments: attachments,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewAnnouncementResponseSlice converts announcement models into DTOs.
func NewAnnouncementResponseSlice(models []models.Announcement) []AnnouncementResponse {
	responses := make([]AnnouncementResponse, 0, len(models))
	for _, announcement := range models {
		responses = append(responses, NewAnnouncementResponse(announcement))
	}

	return responses
}
