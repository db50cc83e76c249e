package grading

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aula-labs/aula-go-api/internal/models"
)

func choiceQuestion(id uint, weight float64, correctID uint, wrongID uint) models.Question {
	return models.Question{
		ID:     id,
		Weight: weight,
		Type:   models.QuestionTypeMultipleChoice,
		Answers: []models.Answer{
			{ID: correctID, QuestionID: id, Text: "right", IsCorrect: true},
			{ID: wrongID, QuestionID: id, Text: "wrong"},
		},
	}
}

func TestGradeAwardsFullWeightForCorrectChoice(t *testing.T) {
	questions := []models.Question{
		choiceQuestion(1, 1.0, 10, 11),
		choiceQuestion(2, 2.0, 20, 21),
	}

	result := Grade(questions, map[string]string{"1": "10", "2": "21"})

	require.Equal(t, 1.0, result.Total)
	require.Equal(t, 1.0, result.PerQuestion["1"])
	require.Equal(t, 0.0, result.PerQuestion["2"])
}

func TestGradeNonMatchingValuesEarnZero(t *testing.T) {
	questions := []models.Question{choiceQuestion(1, 3.0, 10, 11)}

	cases := map[string]map[string]string{
		"wrong option":   {"1": "11"},
		"unknown value":  {"1": "999"},
		"empty value":    {"1": ""},
		"missing answer": {},
	}

	for name, answers := range cases {
		result := Grade(questions, answers)
		require.Zerof(t, result.Total, "case %q should score zero", name)
	}
}

func TestGradeTrimsWhitespaceBeforeComparing(t *testing.T) {
	questions := []models.Question{choiceQuestion(7, 2.5, 70, 71)}

	result := Grade(questions, map[string]string{"7": " 70 "})
	require.Equal(t, 2.5, result.Total)
}

func TestGradeNoCorrectOptionScoresZero(t *testing.T) {
	question := models.Question{
		ID:     3,
		Weight: 5,
		Type:   models.QuestionTypeMultipleChoice,
		Answers: []models.Answer{
			{ID: 30, QuestionID: 3, Text: "a"},
			{ID: 31, QuestionID: 3, Text: "b"},
		},
	}

	result := Grade([]models.Question{question}, map[string]string{"3": "30"})
	require.Zero(t, result.Total)
}

func TestGradeShortAnswerScoresZeroInitially(t *testing.T) {
	questions := []models.Question{
		{ID: 4, Weight: 5, Type: models.QuestionTypeShortAnswer},
		choiceQuestion(5, 1.0, 50, 51),
	}

	result := Grade(questions, map[string]string{"4": "free text essay", "5": "50"})

	require.Equal(t, 1.0, result.Total)
	require.Zero(t, result.PerQuestion["4"])
}

func TestRecomputeCombinesChoiceCreditAndGradedDetails(t *testing.T) {
	questions := []models.Question{
		choiceQuestion(1, 2.0, 10, 11),
		{ID: 2, Weight: 5, Type: models.QuestionTypeShortAnswer},
		{ID: 3, Weight: 4, Type: models.QuestionTypeShortAnswer},
	}
	answers := map[string]string{"1": "10", "2": "essay", "3": "essay"}

	details := map[string]interface{}{
		"2": 3.5,
		"3": "not a number",
	}

	total := Recompute(questions, answers, details)
	require.Equal(t, 5.5, total)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	questions := []models.Question{
		choiceQuestion(1, 1.0, 10, 11),
		{ID: 2, Weight: 5, Type: models.QuestionTypeShortAnswer},
	}
	answers := map[string]string{"1": "10"}
	details := map[string]interface{}{"2": 4.0}

	first := Recompute(questions, answers, details)
	second := Recompute(questions, answers, details)
	require.Equal(t, first, second)
	require.Equal(t, 5.0, first)
}

func TestRecomputeIgnoresDetailsForChoiceQuestions(t *testing.T) {
	questions := []models.Question{choiceQuestion(1, 2.0, 10, 11)}

	total := Recompute(questions, map[string]string{"1": "11"}, map[string]interface{}{"1": 99.0})
	require.Zero(t, total)
}

func TestPercentageScore(t *testing.T) {
	questions := []models.Question{
		choiceQuestion(1, 1.0, 10, 11),
		choiceQuestion(2, 2.0, 20, 21),
		{ID: 3, Weight: 5, Type: models.QuestionTypeShortAnswer},
	}
	answers := map[string]string{"1": "10", "2": "20", "3": "text"}

	score := PercentageScore(questions, answers)
	require.InDelta(t, 66.666, score, 0.01)

	require.Zero(t, PercentageScore(nil, answers))
}

func TestMaxScore(t *testing.T) {
	questions := []models.Question{
		{ID: 1, Weight: 1.5},
		{ID: 2, Weight: 2.5},
	}
	require.Equal(t, 4.0, MaxScore(questions))
	require.Zero(t, MaxScore(nil))
}
