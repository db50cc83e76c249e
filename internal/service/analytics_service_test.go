package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/aula-labs/aula-go-api/internal/models"
)

func newAnalyticsFixture(t *testing.T) (*fakeSubmissionRepo, *fakeAssessmentRepo, *fakeClassroomRepo, *redis.Client) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	classrooms := newFakeClassroomRepo(models.Classroom{ID: 7, Name: "Math"})

	return newFakeSubmissionRepo(), newFakeAssessmentRepo(), classrooms, client
}

func seedScores(t *testing.T, submissions *fakeSubmissionRepo, assessmentID uint, scores ...float64) {
	t.Helper()
	for _, score := range scores {
		// Derive the student from the repo size so repeated seeding calls
		// never collide on the (student, assessment) uniqueness rule.
		submission := models.Submission{
			StudentID:    uint(100 + len(submissions.submissions)),
			AssessmentID: assessmentID,
			Answers:      datatypes.JSONMap{},
			Score:        score,
		}
		require.NoError(t, submissions.Create(context.Background(), &submission))
	}
}

func TestAnalyticsForAssessment(t *testing.T) {
	submissions, assessments, classrooms, client := newAnalyticsFixture(t)
	assessment := publishedAssessment()
	require.NoError(t, assessments.Create(context.Background(), &assessment))
	seedScores(t, submissions, assessment.ID, 2, 3, 3)

	svc := NewAnalyticsService(submissions, assessments, classrooms, client, time.Minute, testLogger())

	response, err := svc.ForAssessment(context.Background(), assessment.ID)
	require.NoError(t, err)
	require.False(t, response.CacheHit)
	require.InDelta(t, 2.6666, response.Summary.MeanScore, 0.001)
	require.Equal(t, 3.0, response.Summary.MedianScore)
	require.NotNil(t, response.Summary.ModeScore)
	require.Equal(t, 3.0, *response.Summary.ModeScore)
	require.Equal(t, 3, response.Summary.TotalSubmissions)
}

func TestAnalyticsCachesSecondRead(t *testing.T) {
	submissions, assessments, classrooms, client := newAnalyticsFixture(t)
	assessment := publishedAssessment()
	require.NoError(t, assessments.Create(context.Background(), &assessment))
	seedScores(t, submissions, assessment.ID, 5, 7)

	svc := NewAnalyticsService(submissions, assessments, classrooms, client, time.Minute, testLogger())

	first, err := svc.ForAssessment(context.Background(), assessment.ID)
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	// New submissions are invisible until the TTL expires.
	seedScores(t, submissions, assessment.ID, 100)

	second, err := svc.ForAssessment(context.Background(), assessment.ID)
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.Summary, second.Summary)
}

func TestAnalyticsNoSubmissions(t *testing.T) {
	submissions, assessments, classrooms, client := newAnalyticsFixture(t)
	assessment := publishedAssessment()
	require.NoError(t, assessments.Create(context.Background(), &assessment))

	svc := NewAnalyticsService(submissions, assessments, classrooms, client, time.Minute, testLogger())

	_, err := svc.ForAssessment(context.Background(), assessment.ID)
	require.ErrorIs(t, err, ErrNoAnalyticsData)
}

func TestAnalyticsClassroomOmitsEmptyAssessments(t *testing.T) {
	submissions, assessments, classrooms, client := newAnalyticsFixture(t)

	attempted := publishedAssessment()
	attempted.ClassroomID = 7
	require.NoError(t, assessments.Create(context.Background(), &attempted))

	empty := publishedAssessment()
	empty.ID = 0
	empty.Name = "Untouched Quiz"
	empty.ClassroomID = 7
	require.NoError(t, assessments.Create(context.Background(), &empty))

	seedScores(t, submissions, attempted.ID, 4, 6)

	svc := NewAnalyticsService(submissions, assessments, classrooms, client, time.Minute, testLogger())

	response, err := svc.ForClassroom(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, response.Assessments, 1)
	require.Equal(t, attempted.ID, response.Assessments[0].AssessmentID)
}

func TestAnalyticsByTagFiltersAssessments(t *testing.T) {
	submissions, assessments, classrooms, client := newAnalyticsFixture(t)

	algebra := publishedAssessment()
	algebra.Questions[0].Tags = datatypes.JSON(`["algebra","fractions"]`)
	require.NoError(t, assessments.Create(context.Background(), &algebra))

	geometry := publishedAssessment()
	geometry.ID = 0
	geometry.Name = "Geometry Quiz"
	geometry.Questions[0].Tags = datatypes.JSON(`["geometry"]`)
	require.NoError(t, assessments.Create(context.Background(), &geometry))

	seedScores(t, submissions, algebra.ID, 4)
	seedScores(t, submissions, geometry.ID, 8)

	svc := NewAnalyticsService(submissions, assessments, classrooms, client, time.Minute, testLogger())

	response, err := svc.ByTag(context.Background(), 7, []string{"Algebra"})
	require.NoError(t, err)
	require.Len(t, response.Assessments, 1)
	require.Equal(t, algebra.ID, response.Assessments[0].AssessmentID)
	require.Equal(t, []string{"algebra"}, response.Tags)
}

func TestAnalyticsByTagIgnoresAssessmentLevelTag(t *testing.T) {
	submissions, assessments, classrooms, client := newAnalyticsFixture(t)

	// The assessment carries the tag only as display metadata; none of its
	// questions do, so the filter must not select it.
	assessment := publishedAssessment()
	assessment.Tag = "algebra"
	require.NoError(t, assessments.Create(context.Background(), &assessment))
	seedScores(t, submissions, assessment.ID, 4)

	svc := NewAnalyticsService(submissions, assessments, classrooms, client, time.Minute, testLogger())

	response, err := svc.ByTag(context.Background(), 7, []string{"algebra"})
	require.NoError(t, err)
	require.Empty(t, response.Assessments)
}

func TestAnalyticsAggregatePoolsScores(t *testing.T) {
	submissions, assessments, classrooms, client := newAnalyticsFixture(t)

	first := publishedAssessment()
	require.NoError(t, assessments.Create(context.Background(), &first))

	second := publishedAssessment()
	second.ID = 0
	second.Name = "Second Quiz"
	require.NoError(t, assessments.Create(context.Background(), &second))

	seedScores(t, submissions, first.ID, 2, 4)
	seedScores(t, submissions, second.ID, 6, 8)

	svc := NewAnalyticsService(submissions, assessments, classrooms, client, time.Minute, testLogger())

	response, err := svc.Aggregate(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 4, response.Summary.TotalSubmissions)
	require.Equal(t, 5.0, response.Summary.MeanScore)
	require.Equal(t, 8.0, response.Summary.HighestScore)
	require.Equal(t, 2.0, response.Summary.LowestScore)
}

func TestAnalyticsUnknownClassroom(t *testing.T) {
	submissions, assessments, _, client := newAnalyticsFixture(t)
	classrooms := newFakeClassroomRepo()

	svc := NewAnalyticsService(submissions, assessments, classrooms, client, time.Minute, testLogger())

	_, err := svc.ForClassroom(context.Background(), 99)
	require.ErrorIs(t, err, ErrClassroomNotFound)
}
