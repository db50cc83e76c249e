package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aula-labs/aula-go-api/internal/dto"
	"github.com/aula-labs/aula-go-api/internal/models"
	"github.com/aula-labs/aula-go-api/pkg/ai"
)

type fakeLearningPathRepo struct {
	paths  map[uint]models.LearningPath
	tasks  map[uint]models.PathTask
	nextID uint
}

func newFakeLearningPathRepo() *fakeLearningPathRepo {
	return &fakeLearningPathRepo{
		paths:  make(map[uint]models.LearningPath),
		tasks:  make(map[uint]models.PathTask),
		nextID: 1,
	}
}

func (f *fakeLearningPathRepo) Create(ctx context.Context, path *models.LearningPath) error {
	path.ID = f.nextID
	f.nextID++
	path.CreatedAt = time.Now()
	for i := range path.Tasks {
		path.Tasks[i].ID = f.nextID
		path.Tasks[i].LearningPathID = path.ID
		f.tasks[f.nextID] = path.Tasks[i]
		f.nextID++
	}
	f.paths[path.ID] = *path
	return nil
}

func (f *fakeLearningPathRepo) GetByID(ctx context.Context, id uint) (models.LearningPath, error) {
	path, ok := f.paths[id]
	if !ok {
		return models.LearningPath{}, gorm.ErrRecordNotFound
	}
	path.Tasks = nil
	for _, task := range f.tasks {
		if task.LearningPathID == id {
			path.Tasks = append(path.Tasks, task)
		}
	}
	return path, nil
}

func (f *fakeLearningPathRepo) ListByStudent(ctx context.Context, studentID uint) ([]models.LearningPath, error) {
	var result []models.LearningPath
	for id, path := range f.paths {
		if path.StudentID == studentID {
			full, _ := f.GetByID(ctx, id)
			result = append(result, full)
		}
	}
	return result, nil
}

func (f *fakeLearningPathRepo) UpdateTask(ctx context.Context, task *models.PathTask) error {
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeLearningPathRepo) GetTask(ctx context.Context, id uint) (models.PathTask, error) {
	task, ok := f.tasks[id]
	if !ok {
		return models.PathTask{}, gorm.ErrRecordNotFound
	}
	return task, nil
}

func (f *fakeLearningPathRepo) Delete(ctx context.Context, id uint) error {
	delete(f.paths, id)
	for taskID, task := range f.tasks {
		if task.LearningPathID == id {
			delete(f.tasks, taskID)
		}
	}
	return nil
}

// stubPlanner returns a fixed plan and records the inputs it was given.
type stubPlanner struct {
	plan   ai.Plan
	err    error
	inputs []ai.PlanInput
}

func (s *stubPlanner) GeneratePlan(ctx context.Context, input ai.PlanInput) (ai.Plan, error) {
	s.inputs = append(s.inputs, input)
	return s.plan, s.err
}

func newLearningPathFixture(t *testing.T, planner ai.Planner) (LearningPathService, *fakeLearningPathRepo, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := newFakeLearningPathRepo()
	students := newFakeStudentRepo(models.Student{ID: 7, UserID: "u-7", Name: "Asha", Email: "asha@example.com"})
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewLearningPathService(repo, students, planner, client, validate, testLogger())
	return svc, repo, server
}

func TestLearningPathGeneratePersistsOrderedTasks(t *testing.T) {
	planner := &stubPlanner{plan: ai.Plan{
		Title: "Linear Algebra in 4 Weeks",
		Tasks: []ai.PlanTask{
			{Title: "Vectors refresher", Category: models.TaskCategoryPrerequisite},
			{Title: "Week 1", Category: models.TaskCategoryWeek, WeekNumber: ptrInt(1)},
			{Title: "3Blue1Brown playlist", Category: "video"},
		},
	}}
	svc, _, _ := newLearningPathFixture(t, planner)

	path, err := svc.Generate(context.Background(), dto.LearningPathCreateRequest{
		StudentID: 7, Goal: "learn linear algebra",
	})
	require.NoError(t, err)
	require.Equal(t, "Linear Algebra in 4 Weeks", path.Title)
	require.Len(t, path.Tasks, 3)
	require.Equal(t, 0.0, path.CompletionPercentage)

	// Unknown planner categories are coerced to resources, not dropped.
	categories := map[string]int{}
	for _, task := range path.Tasks {
		categories[task.Category]++
	}
	require.Equal(t, 1, categories[models.TaskCategoryResource])
	require.Equal(t, 1, categories[models.TaskCategoryPrerequisite])
}

func TestLearningPathGenerateFeedsSessionHistoryBack(t *testing.T) {
	planner := &stubPlanner{plan: ai.Plan{Title: "Plan", Tasks: []ai.PlanTask{{Title: "t", Category: models.TaskCategoryWeek}}}}
	svc, _, server := newLearningPathFixture(t, planner)

	_, err := svc.Generate(context.Background(), dto.LearningPathCreateRequest{StudentID: 7, Goal: "first goal"})
	require.NoError(t, err)
	require.Empty(t, planner.inputs[0].AdditionalNotes)
	require.True(t, server.Exists("learning_path:sessions:7"))

	_, err = svc.Generate(context.Background(), dto.LearningPathCreateRequest{StudentID: 7, Goal: "second goal"})
	require.NoError(t, err)
	require.Contains(t, planner.inputs[1].AdditionalNotes, "first goal")
	require.Contains(t, planner.inputs[1].PriorPaths, "Plan")
}

func TestLearningPathGenerateWithoutPlanner(t *testing.T) {
	svc, _, _ := newLearningPathFixture(t, nil)

	_, err := svc.Generate(context.Background(), dto.LearningPathCreateRequest{StudentID: 7, Goal: "anything"})
	require.ErrorIs(t, err, ErrPlannerUnavailable)
}

func TestLearningPathSetTaskCompletion(t *testing.T) {
	planner := &stubPlanner{plan: ai.Plan{Title: "Plan", Tasks: []ai.PlanTask{
		{Title: "a", Category: models.TaskCategoryWeek},
		{Title: "b", Category: models.TaskCategoryWeek},
	}}}
	svc, repo, _ := newLearningPathFixture(t, planner)

	created, err := svc.Generate(context.Background(), dto.LearningPathCreateRequest{StudentID: 7, Goal: "goal"})
	require.NoError(t, err)

	updated, err := svc.SetTaskCompletion(context.Background(), created.ID, created.Tasks[0].ID, true)
	require.NoError(t, err)
	require.Equal(t, 50.0, updated.CompletionPercentage)

	// Task belonging to a different path is treated as missing.
	_, err = svc.SetTaskCompletion(context.Background(), created.ID+99, created.Tasks[0].ID, true)
	require.ErrorIs(t, err, ErrPathTaskNotFound)

	require.True(t, repo.tasks[created.Tasks[0].ID].IsCompleted)
}
