package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/aula-labs/aula-go-api/internal/analytics"
	"github.com/aula-labs/aula-go-api/internal/dto"
	"github.com/aula-labs/aula-go-api/internal/handler"
	"github.com/aula-labs/aula-go-api/internal/service"
)

type stubAnalyticsService struct {
	assessment dto.AssessmentAnalyticsResponse
	classroom  dto.ClassroomAnalyticsResponse
	aggregate  dto.AggregateAnalyticsResponse
	taggedWith []string
	err        error
}

func (s *stubAnalyticsService) ForAssessment(context.Context, uint) (dto.AssessmentAnalyticsResponse, error) {
	return s.assessment, s.err
}

func (s *stubAnalyticsService) ForClassroom(context.Context, uint) (dto.ClassroomAnalyticsResponse, error) {
	return s.classroom, s.err
}

func (s *stubAnalyticsService) ByTag(_ context.Context, _ uint, tags []string) (dto.ClassroomAnalyticsResponse, error) {
	s.taggedWith = tags
	return s.classroom, s.err
}

func (s *stubAnalyticsService) Aggregate(context.Context, uint) (dto.AggregateAnalyticsResponse, error) {
	return s.aggregate, s.err
}

func newAnalyticsApp(svc *stubAnalyticsService) *fiber.App {
	app := fiber.New()
	h := handler.NewAnalyticsHandler(svc, zerolog.Nop())
	h.Register(app.Group("/api/v1/analytics"))
	return app
}

func TestAnalyticsHandlerAssessment(t *testing.T) {
	svc := &stubAnalyticsService{
		assessment: dto.AssessmentAnalyticsResponse{
			Summary: analytics.Summary{TotalSubmissions: 3, MeanScore: 2.5},
		},
	}
	app := newAnalyticsApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/assessments/1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalyticsHandlerNoData(t *testing.T) {
	svc := &stubAnalyticsService{err: service.ErrNoAnalyticsData}
	app := newAnalyticsApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/assessments/1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAnalyticsHandlerTagsQuery(t *testing.T) {
	svc := &stubAnalyticsService{}
	app := newAnalyticsApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/classrooms/7?tags=algebra,%20geometry", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"algebra", "geometry"}, svc.taggedWith)
}

func TestAnalyticsHandlerInvalidID(t *testing.T) {
	app := newAnalyticsApp(&stubAnalyticsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/assessments/abc", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
