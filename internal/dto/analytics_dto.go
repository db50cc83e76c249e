package dto

import (
	"time"

	"github.com/aula-labs/aula-go-api/internal/analytics"
)

// AssessmentAnalyticsResponse wraps the statistics of a single-assessment
// scope.
type AssessmentAnalyticsResponse struct {
	AssessmentID uint              `json:"assessmentId"`
	Name         string            `json:"name"`
	Summary      analytics.Summary `json:"summary"`
	GeneratedAt  time.Time         `json:"generatedAt"`
	CacheHit     bool              `json:"cacheHit"`
}

// ClassroomAnalyticsResponse carries one statistics record per assessment in
// a classroom or tag-filtered scope. Assessments without submissions are
// omitted.
type ClassroomAnalyticsResponse struct {
	ClassroomID uint                          `json:"classroomId"`
	Tags        []string                      `json:"tags,omitempty"`
	Assessments []AssessmentAnalyticsResponse `json:"assessments"`
	GeneratedAt time.Time                     `json:"generatedAt"`
	CacheHit    bool                          `json:"cacheHit"`
}

// AggregateAnalyticsResponse pools every submission of a classroom into one
// statistics record.
type AggregateAnalyticsResponse struct {
	ClassroomID uint              `json:"classroomId"`
	Summary     analytics.Summary `json:"summary"`
	GeneratedAt time.Time         `json:"generatedAt"`
	CacheHit    bool              `json:"cacheHit"`
}
