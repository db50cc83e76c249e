package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/aula-labs/aula-go-api/internal/dto"
	"github.com/aula-labs/aula-go-api/internal/models"
)

func newAssessmentService(assessments *fakeAssessmentRepo, classrooms *fakeClassroomRepo, notifier *fakeNotifier) AssessmentService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewAssessmentService(assessments, classrooms, notifier, validate, testLogger())
}

func TestAssessmentPublishNotifiesRoster(t *testing.T) {
	assessment := publishedAssessment()
	assessment.IsPublished = false
	classrooms := newFakeClassroomRepo(models.Classroom{ID: 7, Name: "Math"})
	classrooms.roster = []models.Student{
		{ID: 1, UserID: "u-1"},
		{ID: 2, UserID: "u-2"},
	}
	notifier := &fakeNotifier{}
	repo := newFakeAssessmentRepo(assessment)
	svc := newAssessmentService(repo, classrooms, notifier)

	response, err := svc.Publish(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, response.IsPublished)
	require.Len(t, notifier.published, 2)
	require.Equal(t, models.NotificationTypeAssessment, notifier.published[0].Type)
}

func TestAssessmentPublishRejectsRepublish(t *testing.T) {
	svc := newAssessmentService(newFakeAssessmentRepo(publishedAssessment()), newFakeClassroomRepo(), &fakeNotifier{})

	_, err := svc.Publish(context.Background(), 1)
	require.ErrorIs(t, err, ErrAssessmentAlreadyPublished)
}

func TestAssessmentPublishRejectsExpired(t *testing.T) {
	assessment := publishedAssessment()
	assessment.IsPublished = false
	assessment.Deadline = time.Now().Add(-time.Minute)
	svc := newAssessmentService(newFakeAssessmentRepo(assessment), newFakeClassroomRepo(), &fakeNotifier{})

	_, err := svc.Publish(context.Background(), 1)
	require.ErrorIs(t, err, ErrAssessmentDeadlinePassed)
}

func TestAssessmentCreateRequiresFutureDeadline(t *testing.T) {
	classrooms := newFakeClassroomRepo(models.Classroom{ID: 7})
	svc := newAssessmentService(newFakeAssessmentRepo(), classrooms, &fakeNotifier{})

	_, err := svc.Create(context.Background(), 7, dto.AssessmentCreateRequest{
		Name:     "Late Quiz",
		Deadline: time.Now().Add(-time.Hour),
	})
	require.Error(t, err)
}

func TestAssessmentCreateUnknownClassroom(t *testing.T) {
	svc := newAssessmentService(newFakeAssessmentRepo(), newFakeClassroomRepo(), &fakeNotifier{})

	_, err := svc.Create(context.Background(), 9, dto.AssessmentCreateRequest{
		Name:     "Quiz",
		Deadline: time.Now().Add(time.Hour),
	})
	require.ErrorIs(t, err, ErrClassroomNotFound)
}

func TestAssessmentMaxScoreDerivedFromWeights(t *testing.T) {
	svc := newAssessmentService(newFakeAssessmentRepo(publishedAssessment()), newFakeClassroomRepo(), &fakeNotifier{})

	response, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 6.0, response.MaxScore)
}

func TestAssessmentUnpublishIsIdempotent(t *testing.T) {
	repo := newFakeAssessmentRepo(publishedAssessment())
	svc := newAssessmentService(repo, newFakeClassroomRepo(), &fakeNotifier{})

	first, err := svc.Unpublish(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, first.IsPublished)

	second, err := svc.Unpublish(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, second.IsPublished)
	require.Len(t, repo.updated, 1)
}
