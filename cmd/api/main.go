package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aula-labs/aula-go-api/internal/config"
	"github.com/aula-labs/aula-go-api/internal/database"
	"github.com/aula-labs/aula-go-api/internal/handler"
	"github.com/aula-labs/aula-go-api/internal/middleware"
	"github.com/aula-labs/aula-go-api/internal/models"
	"github.com/aula-labs/aula-go-api/internal/repository"
	"github.com/aula-labs/aula-go-api/internal/router"
	"github.com/aula-labs/aula-go-api/internal/service"
	"github.com/aula-labs/aula-go-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Department{},
		&models.Batch{},
		&models.Teacher{},
		&models.Student{},
		&models.Classroom{},
		&models.Assessment{},
		&models.Question{},
		&models.Answer{},
		&models.Submission{},
		&models.Announcement{},
		&models.Attachment{},
		&models.Notification{},
		&models.ForumMessage{},
		&models.LearningPath{},
		&models.PathTask{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSUrl)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	planner := buildPlanner(cfg, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	classroomRepo := repository.NewClassroomRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	forumRepo := repository.NewForumRepository(db)
	learningPathRepo := repository.NewLearningPathRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.ChannelBase, natsConn, validate, logger)
	classroomService := service.NewClassroomService(classroomRepo, teacherRepo, studentRepo, notificationService, validate, logger)
	assessmentService := service.NewAssessmentService(assessmentRepo, classroomRepo, notificationService, validate, logger)
	questionService := service.NewQuestionService(questionRepo, assessmentRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assessmentRepo, studentRepo, classroomRepo, notificationService, validate, logger)
	gradingService := service.NewGradingService(submissionRepo, assessmentRepo, validate, logger)
	analyticsService := service.NewAnalyticsService(submissionRepo, assessmentRepo, classroomRepo, redisClient, cfg.AnalyticsCacheTTL, logger)
	announcementService := service.NewAnnouncementService(announcementRepo, classroomRepo, notificationService, validate, logger)
	forumService := service.NewForumService(forumRepo, redisClient, cfg.ChannelBase, natsConn, validate, logger)
	learningPathService := service.NewLearningPathService(learningPathRepo, studentRepo, planner, redisClient, validate, logger)

	runCtx, stopSubscribers := context.WithCancel(context.Background())
	defer stopSubscribers()
	notificationService.Start(runCtx)
	forumService.Start(runCtx)

	classroomHandler := handler.NewClassroomHandler(classroomService, validate, logger)
	assessmentHandler := handler.NewAssessmentHandler(assessmentService, validate, logger)
	questionHandler := handler.NewQuestionHandler(questionService, validate, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, validate, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, validate, logger)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService, logger)
	announcementHandler := handler.NewAnnouncementHandler(announcementService, validate, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger, cfg.StreamKeepAlive)
	forumHandler := handler.NewForumHandler(forumService, validate, logger)
	learningPathHandler := handler.NewLearningPathHandler(learningPathService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		ClassroomHandler:    classroomHandler,
		AssessmentHandler:   assessmentHandler,
		QuestionHandler:     questionHandler,
		SubmissionHandler:   submissionHandler,
		GradingHandler:      gradingHandler,
		AnalyticsHandler:    analyticsHandler,
		AnnouncementHandler: announcementHandler,
		NotificationHandler: notificationHandler,
		ForumHandler:        forumHandler,
		LearningPathHandler: learningPathHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildPlanner(cfg config.Config, logger zerolog.Logger) ai.Planner {
	switch cfg.AIProvider {
	case "anthropic":
		planner, err := ai.NewAnthropicPlanner(ai.AnthropicConfig{APIKey: cfg.AnthropicAPIKey, Logger: logger})
		if err != nil {
			logger.Warn().Err(err).Msg("anthropic planner unavailable, plan generation disabled")
			return nil
		}
		return planner
	case "openai", "":
		planner, err := ai.NewOpenAIPlanner(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("openai planner unavailable, plan generation disabled")
			return nil
		}
		return planner
	default:
		logger.Warn().Str("provider", cfg.AIProvider).Msg("unknown ai provider, plan generation disabled")
		return nil
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
