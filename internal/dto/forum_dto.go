package dto

import (
	"time"

	"github.com/aula-labs/aula-go-api/internal/models"
)

// ForumSendRequest is the websocket payload for posting into a classroom room.
type ForumSendRequest struct {
	ClassroomID uint   `json:"classroom_id" validate:"required,gt=0"`
	Content     string `json:"content" validate:"required,min=1"`
}

// ForumHistoryQuery pages through a classroom's message history.
type ForumHistoryQuery struct {
	ClassroomID uint       `json:"classroom_id" validate:"required,gt=0"`
	Before      *time.Time `json:"before"`
	Limit       int        `json:"limit" validate:"omitempty,gte=1,lte=200"`
}

// ForumMessageResponse serializes a forum message.
type ForumMessageResponse struct {
	ID          uint      `json:"id"`
	ClassroomID uint      `json:"classroom_id"`
	SenderID    string    `json:"sender_id"`
	SenderRole  string    `json:"sender_role"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewForumMessageResponse converts a ForumMessage model into a DTO.
func NewForumMessageResponse(model models.ForumMessage) ForumMessageResponse {
	return ForumMessageResponse{
		ID:          model.ID,
		ClassroomID: model.ClassroomID,
		SenderID:    model.SenderID,
		SenderRole:  model.SenderRole,
		Content:     model.Content,
		CreatedAt:   model.CreatedAt,
	}
}

// NewForumMessageResponseSlice converts forum message models into DTOs.
func NewForumMessageResponseSlice(models []models.ForumMessage) []ForumMessageResponse {
	responses := make([]ForumMessageResponse, 0, len(models))
	for _, message := range models {
		responses = append(responses, NewForumMessageResponse(message))
	}

	return responses
}
