package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aula-labs/aula-go-api/internal/dto"
	"github.com/aula-labs/aula-go-api/internal/models"
)

type fakeQuestionRepo struct {
	questions map[uint]models.Question
	nextID    uint
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{questions: make(map[uint]models.Question), nextID: 1}
}

func (f *fakeQuestionRepo) Create(ctx context.Context, question *models.Question) error {
	question.ID = f.nextID
	f.nextID++
	for i := range question.Answers {
		question.Answers[i].ID = f.nextID
		f.nextID++
	}
	f.questions[question.ID] = *question
	return nil
}

func (f *fakeQuestionRepo) GetByID(ctx context.Context, id uint) (models.Question, error) {
	question, ok := f.questions[id]
	if !ok {
		return models.Question{}, gorm.ErrRecordNotFound
	}
	return question, nil
}

func (f *fakeQuestionRepo) GetByIDs(ctx context.Context, ids []uint) ([]models.Question, error) {
	var result []models.Question
	for _, id := range ids {
		if question, ok := f.questions[id]; ok {
			result = append(result, question)
		}
	}
	return result, nil
}

func (f *fakeQuestionRepo) Delete(ctx context.Context, id uint) error {
	delete(f.questions, id)
	return nil
}

func newQuestionService(questions *fakeQuestionRepo, assessments *fakeAssessmentRepo) QuestionService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewQuestionService(questions, assessments, validate, testLogger())
}

func bareAssessment() models.Assessment {
	return models.Assessment{ID: 1, Name: "Quiz", ClassroomID: 7, Deadline: time.Now().Add(time.Hour)}
}

func TestQuestionCreateMultipleChoice(t *testing.T) {
	svc := newQuestionService(newFakeQuestionRepo(), newFakeAssessmentRepo(bareAssessment()))

	response, err := svc.Create(context.Background(), dto.QuestionCreateRequest{
		AssessmentID:       1,
		Text:               "2+2?",
		Weight:             1.5,
		Answers:            []string{"3", "4", "5"},
		CorrectAnswerIndex: ptrInt(1),
		Tags:               []string{"arithmetic"},
	})
	require.NoError(t, err)
	require.Equal(t, models.QuestionTypeMultipleChoice, response.Type)
	require.Len(t, response.Answers, 3)

	correct := 0
	for _, answer := range response.Answers {
		if answer.IsCorrect {
			correct++
			require.Equal(t, "4", answer.Text)
		}
	}
	require.Equal(t, 1, correct)
	require.Equal(t, []string{"arithmetic"}, response.Tags)
}

func TestQuestionCreateRequiresTwoOptions(t *testing.T) {
	svc := newQuestionService(newFakeQuestionRepo(), newFakeAssessmentRepo(bareAssessment()))

	_, err := svc.Create(context.Background(), dto.QuestionCreateRequest{
		AssessmentID:       1,
		Text:               "2+2?",
		Weight:             1.0,
		Answers:            []string{"4"},
		CorrectAnswerIndex: ptrInt(0),
	})
	require.ErrorIs(t, err, ErrInvalidQuestionShape)
}

func TestQuestionCreateRequiresCorrectOption(t *testing.T) {
	svc := newQuestionService(newFakeQuestionRepo(), newFakeAssessmentRepo(bareAssessment()))

	_, err := svc.Create(context.Background(), dto.QuestionCreateRequest{
		AssessmentID: 1,
		Text:         "2+2?",
		Weight:       1.0,
		Answers:      []string{"3", "4"},
	})
	require.ErrorIs(t, err, ErrInvalidQuestionShape)

	_, err = svc.Create(context.Background(), dto.QuestionCreateRequest{
		AssessmentID:       1,
		Text:               "2+2?",
		Weight:             1.0,
		Answers:            []string{"3", "4"},
		CorrectAnswerIndex: ptrInt(5),
	})
	require.ErrorIs(t, err, ErrInvalidQuestionShape)
}

func TestQuestionCreateShortAnswerDropsOptions(t *testing.T) {
	repo := newFakeQuestionRepo()
	svc := newQuestionService(repo, newFakeAssessmentRepo(bareAssessment()))

	response, err := svc.Create(context.Background(), dto.QuestionCreateRequest{
		AssessmentID: 1,
		Text:         "Explain factoring.",
		Weight:       3.0,
		Type:         models.QuestionTypeShortAnswer,
		ModelAnswer:  "Group common factors.",
		Answers:      []string{"should", "be", "dropped"},
	})
	require.NoError(t, err)
	require.Equal(t, models.QuestionTypeShortAnswer, response.Type)
	require.Empty(t, response.Answers)
}

func TestQuestionCreateUnknownAssessment(t *testing.T) {
	svc := newQuestionService(newFakeQuestionRepo(), newFakeAssessmentRepo())

	_, err := svc.Create(context.Background(), dto.QuestionCreateRequest{
		AssessmentID:       9,
		Text:               "2+2?",
		Weight:             1.0,
		Answers:            []string{"3", "4"},
		CorrectAnswerIndex: ptrInt(1),
	})
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}
