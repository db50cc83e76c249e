package dto

import (
	"time"

	"github.com/aula-labs/aula-go-api/internal/models"
)

// LearningPathCreateRequest asks the planner to generate a study plan.
type LearningPathCreateRequest struct {
	StudentID uint       `json:"student_id" validate:"required,gt=0"`
	Goal      string     `json:"goal" validate:"required,min=3,max=500"`
	Deadline  *time.Time `json:"deadline"`
}

// PathTaskUpdateRequest toggles a task's completion state.
type PathTaskUpdateRequest struct {
	IsCompleted bool `json:"is_completed"`
}

// PathTaskResponse serializes one step of a learning path.
type PathTaskResponse struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	WeekNumber  *int   `json:"week_number,omitempty"`
	DayRange    string `json:"day_range,omitempty"`
	WeekTitle   string `json:"week_title,omitempty"`
	IsCompleted bool   `json:"is_completed"`
	Order       int    `json:"order"`
}

// LearningPathResponse serializes a learning path with derived progress.
type LearningPathResponse struct {
	ID                   uint               `json:"id"`
	StudentID            uint               `json:"student_id"`
	Title                string             `json:"title"`
	Deadline             *time.Time         `json:"deadline"`
	CompletionPercentage float64            `json:"completion_percentage"`
	Tasks                []PathTaskResponse `json:"tasks"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// NewLearningPathResponse converts a LearningPath model into a DTO.
func NewLearningPathResponse(model models.LearningPath) LearningPathResponse {
	tasks := make([]PathTaskResponse, 0, len(model.Tasks))
	for _, task := range model.Tasks {
		tasks = append(tasks, PathTaskResponse{
			ID:          task.ID,
			Title:       task.Title,
			Description: task.Description,
			Category:    task.Category,
			WeekNumber:  task.WeekNumber,
			DayRange:    task.DayRange,
			WeekTitle:   task.WeekTitle,
			IsCompleted: task.IsCompleted,
			Order:       task.Order,
		})
	}

	return LearningPathResponse{
		ID:                   model.ID,
		StudentID:            model.StudentID,
		Title:                model.Title,
		Deadline:             model.Deadline,
		CompletionPercentage: model.CompletionPercentage(),
		Tasks:                tasks,
		CreatedAt:            model.CreatedAt,
		UpdatedAt:            model.UpdatedAt,
	}
}

// NewLearningPathResponseSlice converts learning path models into DTOs.
func NewLearningPathResponseSlice(models []models.LearningPath) []LearningPathResponse {
	responses := make([]LearningPathResponse, 0, len(models))
	for _, path := range models {
		responses = append(responses, NewLearningPathResponse(path))
	}

	return responses
}
