package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/aula-labs/aula-go-api/internal/dto"
	"github.com/aula-labs/aula-go-api/internal/handler"
	"github.com/aula-labs/aula-go-api/internal/service"
)

type stubGradingService struct {
	submission dto.SubmissionResponse
	result     dto.BulkGradeResult
	err        error
}

func (s *stubGradingService) GradeShortAnswers(context.Context, uint, dto.ShortAnswerGradeRequest) (dto.SubmissionResponse, error) {
	return s.submission, s.err
}

func (s *stubGradingService) GradeStudentsPercentage(context.Context, dto.BulkPercentageGradeRequest) (dto.BulkGradeResult, error) {
	return s.result, s.err
}

func newGradingApp(svc *stubGradingService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		c.Locals("user_role", "teacher")
		return c.Next()
	})
	validate := validator.New(validator.WithRequiredStructEnabled())
	h := handler.NewGradingHandler(svc, validate, zerolog.Nop())
	h.Register(app.Group("/api/v1"))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestGradingHandlerShortAnswers(t *testing.T) {
	svc := &stubGradingService{submission: dto.SubmissionResponse{ID: 1, Score: 5.5}}
	app := newGradingApp(svc)

	resp := postJSON(t, app, "/api/v1/assessments/1/grade", `{"classroom_id":7,"student_id":3,"question_scores":{"12":2.5}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGradingHandlerScoreExceedsWeight(t *testing.T) {
	svc := &stubGradingService{err: service.ErrScoreExceedsWeight}
	app := newGradingApp(svc)

	resp := postJSON(t, app, "/api/v1/assessments/1/grade", `{"classroom_id":7,"student_id":3,"question_scores":{"12":9.5}}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestGradingHandlerUnknownAssessment(t *testing.T) {
	svc := &stubGradingService{err: service.ErrAssessmentNotFound}
	app := newGradingApp(svc)

	resp := postJSON(t, app, "/api/v1/grading/percentage", `{"assessment_id":9,"student_ids":[1]}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGradingHandlerRejectsMalformedBody(t *testing.T) {
	app := newGradingApp(&stubGradingService{})

	resp := postJSON(t, app, "/api/v1/assessments/1/grade", `{"student_id":`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
