package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aula-labs/aula-go-api/internal/models"
)

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByStudentAndAssessment(ctx context.Context, studentID, assessmentID uint) (models.Submission, error)
	ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Submission, error)
	ListScoresByAssessment(ctx context.Context, assessmentID uint) ([]float64, error)
	UpdateLocked(ctx context.Context, id uint, mutate func(*models.Submission) error) (models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Student").
		Preload("Assessment")
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByStudentAndAssessment(ctx context.Context, studentID, assessmentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("student_id = ?", studentID).
		Where("assessment_id = ?", assessmentID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListScoresByAssessment(ctx context.Context, assessmentID uint) ([]float64, error) {
	var scores []float64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("assessment_id = ?", assessmentID).
		Pluck("score", &scores).Error; err != nil {
		return nil, err
	}

	return scores, nil
}

// UpdateLocked serialises concurrent score rewrites on the same submission.
// The row is locked for the duration of the transaction so the
// read-mutate-write cycle of a grading pass cannot lose updates.
func (r *submissionRepository) UpdateLocked(ctx context.Context, id uint, mutate func(*models.Submission) error) (models.Submission, error) {
	var submission models.Submission

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		// sqlite serialises writers on its own and rejects FOR UPDATE.
		if tx.Dialector.Name() != "sqlite" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.First(&submission, id).Error; err != nil {
			return err
		}

		if err := mutate(&submission); err != nil {
			return err
		}

		return tx.Save(&submission).Error
	})
	if err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}
