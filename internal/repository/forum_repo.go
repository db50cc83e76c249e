package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/aula-labs/aula-go-api/internal/models"
)

// ForumRepository persists classroom discussion messages.
type ForumRepository interface {
	Save(ctx context.Context, message *models.ForumMessage) error
	ListByClassroom(ctx context.Context, classroomID uint, before time.Time, limit int) ([]models.ForumMessage, error)
}

type forumRepository struct {
	db *gorm.DB
}

// NewForumRepository constructs a GORM-backed forum repository.
func NewForumRepository(db *gorm.DB) ForumRepository {
	return &forumRepository{db: db}
}

func (r *forumRepository) Save(ctx context.Context, message *models.ForumMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *forumRepository) ListByClassroom(ctx context.Context, classroomID uint, before time.Time, limit int) ([]models.ForumMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := r.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Order("created_at DESC").
		Limit(limit)

	if !before.IsZero() {
		query = query.Where("created_at < ?", before)
	}

	var messages []models.ForumMessage
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}

	return messages, nil
}
