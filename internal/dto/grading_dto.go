package dto

// ShortAnswerGradeRequest carries teacher-assigned scores for the short-answer
// questions of one student's submission. The classroom scopes the assessment
// lookup so grades cannot land on a same-numbered assessment elsewhere.
type ShortAnswerGradeRequest struct {
	ClassroomID    uint               `json:"classroom_id" validate:"required,gt=0"`
	StudentID      uint               `json:"student_id" validate:"required,gt=0"`
	QuestionScores map[string]float64 `json:"question_scores" validate:"required,min=1,dive,gte=0"`
}

// BulkPercentageGradeRequest triggers the alternate percentage scoring mode
// for the named students' submissions.
type BulkPercentageGradeRequest struct {
	AssessmentID uint   `json:"assessment_id" validate:"required,gt=0"`
	StudentIDs   []uint `json:"student_ids" validate:"required,min=1,dive,gt=0"`
}

// BulkGradeResult reports the outcome of a bulk percentage grading pass.
type BulkGradeResult struct {
	Graded  []SubmissionResponse `json:"graded"`
	Skipped []uint               `json:"skipped,omitempty"`
}
