package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/aula-labs/aula-go-api/internal/analytics"
	"github.com/aula-labs/aula-go-api/internal/dto"
	"github.com/aula-labs/aula-go-api/internal/models"
	"github.com/aula-labs/aula-go-api/internal/observability"
	"github.com/aula-labs/aula-go-api/internal/repository"
)

// ErrNoAnalyticsData indicates the requested scope has no submissions to
// summarise. Distinct from a zero-valued record.
var ErrNoAnalyticsData = errors.New("no submissions in scope")

// AnalyticsService computes descriptive statistics over submission scores.
// Results are cached in Redis with a TTL; a stale window is acceptable for
// dashboard reads.
type AnalyticsService interface {
	ForAssessment(ctx context.Context, assessmentID uint) (dto.AssessmentAnalyticsResponse, error)
	ForClassroom(ctx context.Context, classroomID uint) (dto.ClassroomAnalyticsResponse, error)
	ByTag(ctx context.Context, classroomID uint, tags []string) (dto.ClassroomAnalyticsResponse, error)
	Aggregate(ctx context.Context, classroomID uint) (dto.AggregateAnalyticsResponse, error)
}

type analyticsService struct {
	submissions repository.SubmissionRepository
	assessments repository.AssessmentRepository
	classrooms  repository.ClassroomRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewAnalyticsService constructs the analytics service.
func NewAnalyticsService(submissions repository.SubmissionRepository, assessments repository.AssessmentRepository, classrooms repository.ClassroomRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AnalyticsService {
	return &analyticsService{
		submissions: submissions,
		assessments: assessments,
		classrooms:  classrooms,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "analytics_service").Logger(),
		tracer:      otel.Tracer("github.com/aula-labs/aula-go-api/internal/service/analytics"),
		now:         time.Now,
	}
}

func (s *analyticsService) ForAssessment(ctx context.Context, assessmentID uint) (dto.AssessmentAnalyticsResponse, error) {
	cacheKey := fmt.Sprintf("analytics:assessment:%d", assessmentID)
	ctx, span := s.tracer.Start(ctx, "analytics.assessment",
		trace.WithAttributes(attribute.String("analytics.cache_key", cacheKey)))
	defer span.End()

	var cached dto.AssessmentAnalyticsResponse
	if s.readCache(ctx, cacheKey, &cached) {
		cached.CacheHit = true
		span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
		return cached, nil
	}

	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentAnalyticsResponse{}, ErrAssessmentNotFound
		}
		span.RecordError(err)
		return dto.AssessmentAnalyticsResponse{}, err
	}

	started := s.now()
	response, ok, err := s.summariseAssessment(ctx, assessment)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "summarise_failed")
		return dto.AssessmentAnalyticsResponse{}, err
	}
	if !ok {
		return dto.AssessmentAnalyticsResponse{}, ErrNoAnalyticsData
	}
	observability.AnalyticsComputeDuration().Observe(s.now().Sub(started).Seconds())

	s.writeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *analyticsService) ForClassroom(ctx context.Context, classroomID uint) (dto.ClassroomAnalyticsResponse, error) {
	return s.classroomScope(ctx, classroomID, nil)
}

// ByTag restricts the classroom scope to assessments carrying one of the
// given tags. Tag matching is done in memory over the classroom's
// assessments; classrooms are small enough that pushing the filter into SQL
// buys nothing.
func (s *analyticsService) ByTag(ctx context.Context, classroomID uint, tags []string) (dto.ClassroomAnalyticsResponse, error) {
	normalised := normaliseTags(tags)
	if len(normalised) == 0 {
		return dto.ClassroomAnalyticsResponse{}, fmt.Errorf("at least one tag is required")
	}

	return s.classroomScope(ctx, classroomID, normalised)
}

// Aggregate pools every submission of the classroom's assessments into a
// single score multiset before summarising.
func (s *analyticsService) Aggregate(ctx context.Context, classroomID uint) (dto.AggregateAnalyticsResponse, error) {
	cacheKey := fmt.Sprintf("analytics:classroom:%d:aggregate", classroomID)
	ctx, span := s.tracer.Start(ctx, "analytics.aggregate",
		trace.WithAttributes(attribute.String("analytics.cache_key", cacheKey)))
	defer span.End()

	var cached dto.AggregateAnalyticsResponse
	if s.readCache(ctx, cacheKey, &cached) {
		cached.CacheHit = true
		span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
		return cached, nil
	}

	assessments, err := s.listClassroomAssessments(ctx, classroomID)
	if err != nil {
		span.RecordError(err)
		return dto.AggregateAnalyticsResponse{}, err
	}

	started := s.now()
	pooled := make([]float64, 0, len(assessments))
	for _, assessment := range assessments {
		scores, err := s.submissions.ListScoresByAssessment(ctx, assessment.ID)
		if err != nil {
			span.RecordError(err)
			return dto.AggregateAnalyticsResponse{}, err
		}
		pooled = append(pooled, scores...)
	}

	summary, ok := analytics.Describe(pooled)
	if !ok {
		return dto.AggregateAnalyticsResponse{}, ErrNoAnalyticsData
	}
	observability.AnalyticsComputeDuration().Observe(s.now().Sub(started).Seconds())

	response := dto.AggregateAnalyticsResponse{
		ClassroomID: classroomID,
		Summary:     summary,
		GeneratedAt: s.now().UTC(),
	}

	s.writeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *analyticsService) classroomScope(ctx context.Context, classroomID uint, tags []string) (dto.ClassroomAnalyticsResponse, error) {
	cacheKey := fmt.Sprintf("analytics:classroom:%d", classroomID)
	if len(tags) > 0 {
		cacheKey = fmt.Sprintf("%s:tags:%s", cacheKey, strings.Join(tags, ","))
	}

	ctx, span := s.tracer.Start(ctx, "analytics.classroom",
		trace.WithAttributes(attribute.String("analytics.cache_key", cacheKey)))
	defer span.End()

	var cached dto.ClassroomAnalyticsResponse
	if s.readCache(ctx, cacheKey, &cached) {
		cached.CacheHit = true
		span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
		return cached, nil
	}

	assessments, err := s.listClassroomAssessments(ctx, classroomID)
	if err != nil {
		span.RecordError(err)
		return dto.ClassroomAnalyticsResponse{}, err
	}

	started := s.now()
	records := make([]dto.AssessmentAnalyticsResponse, 0, len(assessments))
	for _, assessment := range assessments {
		if len(tags) > 0 && !hasAnyTag(assessment, tags) {
			continue
		}

		record, ok, err := s.summariseAssessment(ctx, assessment)
		if err != nil {
			span.RecordError(err)
			return dto.ClassroomAnalyticsResponse{}, err
		}
		// Assessments nobody has attempted are omitted rather than rendered
		// as zero-score rows.
		if !ok {
			continue
		}
		records = append(records, record)
	}
	observability.AnalyticsComputeDuration().Observe(s.now().Sub(started).Seconds())

	response := dto.ClassroomAnalyticsResponse{
		ClassroomID: classroomID,
		Tags:        tags,
		Assessments: records,
		GeneratedAt: s.now().UTC(),
	}

	s.writeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *analyticsService) listClassroomAssessments(ctx context.Context, classroomID uint) ([]models.Assessment, error) {
	if _, err := s.classrooms.GetByID(ctx, classroomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		return nil, err
	}

	return s.assessments.ListByClassroom(ctx, classroomID)
}

func (s *analyticsService) summariseAssessment(ctx context.Context, assessment models.Assessment) (dto.AssessmentAnalyticsResponse, bool, error) {
	scores, err := s.submissions.ListScoresByAssessment(ctx, assessment.ID)
	if err != nil {
		return dto.AssessmentAnalyticsResponse{}, false, err
	}

	summary, ok := analytics.Describe(scores)
	if !ok {
		return dto.AssessmentAnalyticsResponse{}, false, nil
	}

	return dto.AssessmentAnalyticsResponse{
		AssessmentID: assessment.ID,
		Name:         assessment.Name,
		Summary:      summary,
		GeneratedAt:  s.now().UTC(),
	}, true, nil
}

func (s *analyticsService) readCache(ctx context.Context, key string, target interface{}) bool {
	if s.cache == nil {
		return false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("cache_key", key).Msg("failed to read analytics cache")
		}
		observability.AnalyticsCacheLookups().WithLabelValues("miss").Inc()
		return false
	}

	if err := json.Unmarshal([]byte(cached), target); err != nil {
		observability.AnalyticsCacheLookups().WithLabelValues("miss").Inc()
		return false
	}

	observability.AnalyticsCacheLookups().WithLabelValues("hit").Inc()
	return true
}

func (s *analyticsService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("failed to store analytics cache")
	}
}

func normaliseTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	normalised := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalised = append(normalised, tag)
	}
	sort.Strings(normalised)
	return normalised
}

// hasAnyTag reports whether any question of the assessment carries one of the
// filter tags. The assessment-level tag is display metadata and deliberately
// not consulted here.
func hasAnyTag(assessment models.Assessment, tags []string) bool {
	for _, question := range assessment.Questions {
		if len(question.Tags) == 0 {
			continue
		}
		var questionTags []string
		if err := json.Unmarshal(question.Tags, &questionTags); err != nil {
			continue
		}
		for _, qt := range questionTags {
			for _, tag := range tags {
				if strings.EqualFold(qt, tag) {
					return true
				}
			}
		}
	}

	return false
}
