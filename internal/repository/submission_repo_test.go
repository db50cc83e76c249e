package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aula-labs/aula-go-api/internal/models"
)

func setupSubmissionTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Migrator().DropTable(
		&models.Submission{}, &models.Answer{}, &models.Question{},
		&models.Assessment{}, &models.Student{},
	))
	require.NoError(t, db.AutoMigrate(
		&models.Student{}, &models.Assessment{}, &models.Question{},
		&models.Answer{}, &models.Submission{},
	))

	return db
}

func seedAssessmentWithStudent(t *testing.T, db *gorm.DB) (models.Assessment, models.Student) {
	t.Helper()

	student := models.Student{UserID: "u-1", Name: "Asha", Email: "asha@example.com"}
	require.NoError(t, db.Create(&student).Error)

	assessment := models.Assessment{
		Name:        "Quiz 1",
		Tag:         "algebra",
		ClassroomID: 1,
		IsPublished: true,
		Deadline:    time.Now().Add(24 * time.Hour),
		Questions: []models.Question{
			{
				Text:   "2+2?",
				Weight: 1,
				Type:   models.QuestionTypeMultipleChoice,
				Answers: []models.Answer{
					{Text: "4", IsCorrect: true},
					{Text: "5"},
				},
			},
		},
	}
	require.NoError(t, db.Create(&assessment).Error)

	return assessment, student
}

func TestSubmissionRepositoryUniquePerStudentAndAssessment(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)
	assessment, student := seedAssessmentWithStudent(t, db)

	first := models.Submission{
		StudentID:    student.ID,
		AssessmentID: assessment.ID,
		Answers:      datatypes.JSONMap{"1": "1"},
		Score:        1,
	}
	require.NoError(t, repo.Create(context.Background(), &first))

	duplicate := models.Submission{
		StudentID:    student.ID,
		AssessmentID: assessment.ID,
		Answers:      datatypes.JSONMap{"1": "2"},
	}
	err := repo.Create(context.Background(), &duplicate)
	require.Error(t, err, "second submission for the same (student, assessment) must be rejected by the unique index")
}

func TestSubmissionRepositoryGetByStudentAndAssessment(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)
	assessment, student := seedAssessmentWithStudent(t, db)

	created := models.Submission{
		StudentID:    student.ID,
		AssessmentID: assessment.ID,
		Answers:      datatypes.JSONMap{"1": "1"},
		Score:        1,
	}
	require.NoError(t, repo.Create(context.Background(), &created))

	found, err := repo.GetByStudentAndAssessment(context.Background(), student.ID, assessment.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
	require.Equal(t, "Asha", found.Student.Name)
	require.Equal(t, "Quiz 1", found.Assessment.Name)

	_, err = repo.GetByStudentAndAssessment(context.Background(), student.ID+99, assessment.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubmissionRepositoryScoresAndLockedUpdate(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)
	assessment, student := seedAssessmentWithStudent(t, db)

	other := models.Student{UserID: "u-2", Name: "Binh", Email: "binh@example.com"}
	require.NoError(t, db.Create(&other).Error)

	require.NoError(t, repo.Create(context.Background(), &models.Submission{
		StudentID: student.ID, AssessmentID: assessment.ID, Answers: datatypes.JSONMap{}, Score: 2,
	}))
	second := models.Submission{
		StudentID: other.ID, AssessmentID: assessment.ID, Answers: datatypes.JSONMap{}, Score: 3,
	}
	require.NoError(t, repo.Create(context.Background(), &second))

	scores, err := repo.ListScoresByAssessment(context.Background(), assessment.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []float64{2, 3}, scores)

	updated, err := repo.UpdateLocked(context.Background(), second.ID, func(submission *models.Submission) error {
		submission.Score = 5
		submission.GradedDetails = datatypes.JSONMap{"1": 5.0}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 5.0, updated.Score)

	reloaded, err := repo.GetByID(context.Background(), second.ID)
	require.NoError(t, err)
	require.Equal(t, 5.0, reloaded.Score)
}
