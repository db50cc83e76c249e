package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aula-labs/aula-go-api/internal/models"
)

// LearningPathRepository persists generated learning paths and their tasks.
type LearningPathRepository interface {
	Create(ctx context.Context, path *models.LearningPath) error
	GetByID(ctx context.Context, id uint) (models.LearningPath, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.LearningPath, error)
	UpdateTask(ctx context.Context, task *models.PathTask) error
	GetTask(ctx context.Context, id uint) (models.PathTask, error)
	Delete(ctx context.Context, id uint) error
}

type learningPathRepository struct {
	db *gorm.DB
}

// NewLearningPathRepository constructs a GORM-backed repository.
func NewLearningPathRepository(db *gorm.DB) LearningPathRepository {
	return &learningPathRepository{db: db}
}

func (r *learningPathRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.LearningPath{}).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("path_tasks.\"order\" ASC") })
}

func (r *learningPathRepository) Create(ctx context.Context, path *models.LearningPath) error {
	return r.db.WithContext(ctx).Create(path).Error
}

func (r *learningPathRepository) GetByID(ctx context.Context, id uint) (models.LearningPath, error) {
	var path models.LearningPath
	if err := r.baseQuery(ctx).First(&path, id).Error; err != nil {
		return models.LearningPath{}, err
	}

	return path, nil
}

func (r *learningPathRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.LearningPath, error) {
	var paths []models.LearningPath
	if err := r.baseQuery(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&paths).Error; err != nil {
		return nil, err
	}

	return paths, nil
}

func (r *learningPathRepository) UpdateTask(ctx context.Context, task *models.PathTask) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *learningPathRepository) GetTask(ctx context.Context, id uint) (models.PathTask, error) {
	var task models.PathTask
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return models.PathTask{}, err
	}

	return task, nil
}

func (r *learningPathRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.LearningPath{}, id).Error
}
