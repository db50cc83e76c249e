package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/aula-labs/aula-go-api/internal/dto"
	"github.com/aula-labs/aula-go-api/internal/models"
	"github.com/aula-labs/aula-go-api/internal/repository"
	"github.com/aula-labs/aula-go-api/pkg/ai"
)

// Sentinel errors for learning paths.
var (
	ErrLearningPathNotFound = errors.New("learning path not found")
	ErrPathTaskNotFound     = errors.New("learning path task not found")
	ErrPlannerUnavailable   = errors.New("plan generation is not configured")
)

// LearningPathService generates AI study plans and tracks task completion.
type LearningPathService interface {
	Generate(ctx context.Context, payload dto.LearningPathCreateRequest) (dto.LearningPathResponse, error)
	Get(ctx context.Context, id uint) (dto.LearningPathResponse, error)
	ListByStudent(ctx context.Context, studentID uint) ([]dto.LearningPathResponse, error)
	SetTaskCompletion(ctx context.Context, pathID, taskID uint, completed bool) (dto.LearningPathResponse, error)
	Delete(ctx context.Context, id uint) error
}

// sessionHistoryLimit caps how many past goals are replayed into the prompt.
const sessionHistoryLimit = 10

// sessionHistoryTTL expires idle per-student planning sessions.
const sessionHistoryTTL = 24 * time.Hour

type learningPathService struct {
	paths     repository.LearningPathRepository
	students  repository.StudentRepository
	planner   ai.Planner
	redis     *redis.Client
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewLearningPathService builds a learning path service. A nil planner
// disables generation but keeps reads and task updates working; a nil redis
// client disables session history so each generation stands alone.
func NewLearningPathService(paths repository.LearningPathRepository, students repository.StudentRepository, planner ai.Planner, redisClient *redis.Client, validate *validator.Validate, logger zerolog.Logger) LearningPathService {
	return &learningPathService{
		paths:     paths,
		students:  students,
		planner:   planner,
		redis:     redisClient,
		validator: validate,
		logger:    logger.With().Str("component", "learning_path_service").Logger(),
		tracer:    otel.Tracer("github.com/aula-labs/aula-go-api/internal/service/learning_path"),
	}
}

// Generate asks the planner for a study plan and persists it as an ordered
// task list. Prior path titles are fed back into the prompt so repeated
// requests build on each other instead of repeating themselves.
func (s *learningPathService) Generate(ctx context.Context, payload dto.LearningPathCreateRequest) (dto.LearningPathResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LearningPathResponse{}, err
	}

	if s.planner == nil {
		return dto.LearningPathResponse{}, ErrPlannerUnavailable
	}

	spanCtx, span := s.tracer.Start(ctx, "learning_path.generate",
		trace.WithAttributes(attribute.Int("learning_path.student_id", int(payload.StudentID))))
	defer span.End()

	student, err := s.students.GetByID(spanCtx, payload.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LearningPathResponse{}, ErrStudentNotFound
		}
		return dto.LearningPathResponse{}, err
	}

	existing, err := s.paths.ListByStudent(spanCtx, student.ID)
	if err != nil {
		return dto.LearningPathResponse{}, err
	}

	priorTitles := make([]string, 0, len(existing))
	for _, path := range existing {
		priorTitles = append(priorTitles, path.Title)
	}

	plan, err := s.planner.GeneratePlan(spanCtx, ai.PlanInput{
		Goal:            payload.Goal,
		Deadline:        payload.Deadline,
		PriorPaths:      priorTitles,
		AdditionalNotes: s.sessionNotes(spanCtx, student.ID),
	})
	if err != nil {
		span.RecordError(err)
		return dto.LearningPathResponse{}, err
	}

	path := models.LearningPath{
		StudentID: student.ID,
		Title:     plan.Title,
		Deadline:  payload.Deadline,
		Tasks:     buildPathTasks(plan.Tasks),
	}

	if err := s.paths.Create(spanCtx, &path); err != nil {
		span.RecordError(err)
		return dto.LearningPathResponse{}, err
	}

	s.recordSession(spanCtx, student.ID, payload.Goal, plan.Title)

	s.logger.Info().
		Uint("learning_path_id", path.ID).
		Uint("student_id", student.ID).
		Int("tasks", len(path.Tasks)).
		Msg("learning path generated")

	return dto.NewLearningPathResponse(path), nil
}

func sessionHistoryKey(studentID uint) string {
	return fmt.Sprintf("learning_path:sessions:%d", studentID)
}

// sessionNotes replays the student's recent planning exchanges so repeated
// requests read as one conversation. Best effort: redis being down just means
// a fresh session.
func (s *learningPathService) sessionNotes(ctx context.Context, studentID uint) string {
	if s.redis == nil {
		return ""
	}

	entries, err := s.redis.LRange(ctx, sessionHistoryKey(studentID), int64(-sessionHistoryLimit), -1).Result()
	if err != nil || len(entries) == 0 {
		if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to load planning session history")
		}
		return ""
	}

	notes := "Earlier requests this session:"
	for _, entry := range entries {
		notes += "\n- " + entry
	}
	return notes
}

func (s *learningPathService) recordSession(ctx context.Context, studentID uint, goal, title string) {
	if s.redis == nil {
		return
	}

	key := sessionHistoryKey(studentID)
	entry := fmt.Sprintf("goal %q produced plan %q", goal, title)

	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, entry)
	pipe.LTrim(ctx, key, int64(-sessionHistoryLimit), -1)
	pipe.Expire(ctx, key, sessionHistoryTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to record planning session history")
	}
}

func (s *learningPathService) Get(ctx context.Context, id uint) (dto.LearningPathResponse, error) {
	path, err := s.paths.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LearningPathResponse{}, ErrLearningPathNotFound
		}
		return dto.LearningPathResponse{}, err
	}

	return dto.NewLearningPathResponse(path), nil
}

func (s *learningPathService) ListByStudent(ctx context.Context, studentID uint) ([]dto.LearningPathResponse, error) {
	paths, err := s.paths.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewLearningPathResponseSlice(paths), nil
}

func (s *learningPathService) SetTaskCompletion(ctx context.Context, pathID, taskID uint, completed bool) (dto.LearningPathResponse, error) {
	task, err := s.paths.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LearningPathResponse{}, ErrPathTaskNotFound
		}
		return dto.LearningPathResponse{}, err
	}

	if task.LearningPathID != pathID {
		return dto.LearningPathResponse{}, ErrPathTaskNotFound
	}

	if task.IsCompleted != completed {
		task.IsCompleted = completed
		if err := s.paths.UpdateTask(ctx, &task); err != nil {
			return dto.LearningPathResponse{}, err
		}
	}

	path, err := s.paths.GetByID(ctx, pathID)
	if err != nil {
		return dto.LearningPathResponse{}, err
	}

	return dto.NewLearningPathResponse(path), nil
}

func (s *learningPathService) Delete(ctx context.Context, id uint) error {
	if _, err := s.paths.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLearningPathNotFound
		}
		return err
	}

	if err := s.paths.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("learning_path_id", id).Msg("learning path deleted")
	return nil
}

// buildPathTasks converts planner output into ordered task models. Tasks with
// an unknown category are kept as resources rather than dropped.
func buildPathTasks(tasks []ai.PlanTask) []models.PathTask {
	result := make([]models.PathTask, 0, len(tasks))
	for i, task := range tasks {
		category := task.Category
		switch category {
		case models.TaskCategoryPrerequisite, models.TaskCategoryWeek, models.TaskCategoryResource:
		default:
			category = models.TaskCategoryResource
		}

		result = append(result, models.PathTask{
			Title:       task.Title,
			Description: task.Description,
			Category:    category,
			WeekNumber:  task.WeekNumber,
			DayRange:    task.DayRange,
			WeekTitle:   task.WeekTitle,
			IsCompleted: false,
			Order:       i,
		})
	}

	return result
}
