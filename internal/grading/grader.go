// Package grading implements the deterministic scoring engine for assessment
// submissions. All functions are pure: missing or malformed per-question data
// degrades to zero credit and never produces an error, so grading always
// completes with a reportable score.
package grading

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/aula-labs/aula-go-api/internal/models"
)

// Mode selects between the two scoring behaviours the system supports. The
// authoritative mode for an assessment is not recorded in the data model, so
// callers pass it explicitly per grading operation.
type Mode string

const (
	// ModeWeighted sums per-question credit capped at each question's weight.
	ModeWeighted Mode = "weighted"
	// ModePercentage scores correct multiple-choice count over total question
	// count, scaled to 0-100.
	ModePercentage Mode = "percentage"
)

// Result carries the weighted total together with per-question credit.
type Result struct {
	Total       float64
	PerQuestion map[string]float64
}

// Grade computes the initial auto-graded score for a raw answer set.
// Multiple-choice questions earn their full weight when the submitted value
// matches the correct option's identifier; short-answer questions earn zero
// until a manual grading pass assigns credit.
func Grade(questions []models.Question, answers map[string]string) Result {
	result := Result{PerQuestion: make(map[string]float64, len(questions))}

	for _, question := range questions {
		key := QuestionKey(question.ID)
		credit := 0.0
		if question.Type == models.QuestionTypeMultipleChoice && choiceIsCorrect(question, answers[key]) {
			credit = question.Weight
		}
		result.PerQuestion[key] = credit
		result.Total += credit
	}

	return result
}

// Recompute rebuilds a submission total from the current question and answer
// state. Multiple-choice credit is always rechecked against the live Answer
// records rather than trusted from a stored score, so edits to questions or
// options after submission cannot leave a stale total behind. Short-answer
// credit is the sum of numeric graded-details entries.
func Recompute(questions []models.Question, answers map[string]string, gradedDetails map[string]interface{}) float64 {
	total := Grade(questions, answers).Total

	for _, question := range questions {
		if question.Type != models.QuestionTypeShortAnswer {
			continue
		}
		if assigned, ok := numericDetail(gradedDetails, QuestionKey(question.ID)); ok {
			total += assigned
		}
	}

	return total
}

// PercentageScore implements the alternate bulk grading mode: the share of
// multiple-choice questions answered correctly over all questions, as a
// 0-100 percentage. An assessment without questions scores zero.
func PercentageScore(questions []models.Question, answers map[string]string) float64 {
	if len(questions) == 0 {
		return 0
	}

	correct := 0
	for _, question := range questions {
		if question.Type == models.QuestionTypeMultipleChoice && choiceIsCorrect(question, answers[QuestionKey(question.ID)]) {
			correct++
		}
	}

	return float64(correct) / float64(len(questions)) * 100
}

// MaxScore returns the sum of question weights, i.e. the raw ceiling of the
// weighted mode.
func MaxScore(questions []models.Question) float64 {
	total := 0.0
	for _, question := range questions {
		total += question.Weight
	}
	return total
}

// QuestionKey renders a question identifier in the canonical string form used
// by answer maps and graded details.
func QuestionKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// choiceIsCorrect compares the submitted value against the correct option's
// identifier after coercing both sides to canonical strings, so numeric and
// string payloads cannot produce type-mismatch false negatives.
func choiceIsCorrect(question models.Question, submitted string) bool {
	correct := question.CorrectAnswer()
	if correct == nil {
		return false
	}
	submitted = strings.TrimSpace(submitted)
	if submitted == "" {
		return false
	}
	return submitted == QuestionKey(correct.ID)
}

func numericDetail(details map[string]interface{}, key string) (float64, bool) {
	raw, ok := details[key]
	if !ok {
		return 0, false
	}
	switch value := raw.(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
