package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aula-labs/aula-go-api/internal/config"
	"github.com/aula-labs/aula-go-api/internal/handler"
	"github.com/aula-labs/aula-go-api/internal/middleware"
	"github.com/aula-labs/aula-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ClassroomHandler    *handler.ClassroomHandler
	AssessmentHandler   *handler.AssessmentHandler
	QuestionHandler     *handler.QuestionHandler
	SubmissionHandler   *handler.SubmissionHandler
	GradingHandler      *handler.GradingHandler
	AnalyticsHandler    *handler.AnalyticsHandler
	AnnouncementHandler *handler.AnnouncementHandler
	NotificationHandler *handler.NotificationHandler
	ForumHandler        *handler.ForumHandler
	LearningPathHandler *handler.LearningPathHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	protected := app.Group("/api/v1", jwtMiddleware)

	if deps.ClassroomHandler != nil {
		classrooms := protected.Group("/classrooms")
		deps.ClassroomHandler.Register(classrooms)
		deps.ClassroomHandler.RegisterCatalog(protected)
	}

	// Assessment, announcement and submission routes span both the
	// /classrooms/:classroomId/... and flat prefixes, so they register on
	// the protected group directly.
	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.Register(protected)
	}
	if deps.AnnouncementHandler != nil {
		deps.AnnouncementHandler.Register(protected)
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(protected)
	}

	if deps.QuestionHandler != nil {
		questions := protected.Group("/questions", middleware.RequireRole("admin", "teacher"))
		deps.QuestionHandler.Register(questions)
	}

	if deps.GradingHandler != nil {
		deps.GradingHandler.Register(protected)
	}

	if deps.AnalyticsHandler != nil {
		analytics := protected.Group("/analytics")
		deps.AnalyticsHandler.Register(analytics)
	}

	if deps.NotificationHandler != nil {
		notifications := protected.Group("/notifications")
		deps.NotificationHandler.Register(notifications)
	}

	if deps.ForumHandler != nil {
		forum := protected.Group("/forum", middleware.RateLimit("forum", 30, 10*time.Second))
		deps.ForumHandler.Register(forum)
	}

	if deps.LearningPathHandler != nil {
		paths := protected.Group("/learning-paths")
		deps.LearningPathHandler.Register(paths)
	}
}
