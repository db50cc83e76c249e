package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aula-labs/aula-go-api/internal/models"
)

// AssessmentRepository defines persistence operations for assessments and
// their question banks.
type AssessmentRepository interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	GetByID(ctx context.Context, id uint) (models.Assessment, error)
	GetByClassroom(ctx context.Context, id, classroomID uint) (models.Assessment, error)
	ListByClassroom(ctx context.Context, classroomID uint) ([]models.Assessment, error)
	Update(ctx context.Context, assessment *models.Assessment) error
	Delete(ctx context.Context, id uint) error
}

type assessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository instantiates a GORM-backed repository.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Assessment{}).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.id ASC") }).
		Preload("Questions.Answers")
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	return r.db.WithContext(ctx).Create(assessment).Error
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	if err := r.baseQuery(ctx).First(&assessment, id).Error; err != nil {
		return models.Assessment{}, err
	}

	return assessment, nil
}

func (r *assessmentRepository) GetByClassroom(ctx context.Context, id, classroomID uint) (models.Assessment, error) {
	var assessment models.Assessment
	if err := r.baseQuery(ctx).
		Where("id = ?", id).
		Where("classroom_id = ?", classroomID).
		First(&assessment).Error; err != nil {
		return models.Assessment{}, err
	}

	return assessment, nil
}

func (r *assessmentRepository) ListByClassroom(ctx context.Context, classroomID uint) ([]models.Assessment, error) {
	var assessments []models.Assessment
	if err := r.baseQuery(ctx).
		Where("classroom_id = ?", classroomID).
		Order("created_at DESC").
		Find(&assessments).Error; err != nil {
		return nil, err
	}

	return assessments, nil
}

func (r *assessmentRepository) Update(ctx context.Context, assessment *models.Assessment) error {
	return r.db.WithContext(ctx).Save(assessment).Error
}

func (r *assessmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Assessment{}, id).Error
}
