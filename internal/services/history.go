package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"ivyx/readiness-api/internal/metrics"
	"ivyx/readiness-api/internal/models"
	"ivyx/readiness-api/internal/repositories"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrAssessmentNotFound = errors.New("assessment not found")
)

type SaveResult struct {
	Assessment       *models.Assessment
	TotalAssessments int64
}

type HistoryService struct {
	repo    repositories.AssessmentRepository
	metrics *metrics.Manager
	now     func() time.Time
}

func NewHistoryService(repo repositories.AssessmentRepository, m *metrics.Manager) *HistoryService {
	return &HistoryService{repo: repo, metrics: m, now: time.Now}
}

// WithClock replaces the timestamp source; tests use it to order records.
func (s *HistoryService) WithClock(now func() time.Time) *HistoryService {
	s.now = now
	return s
}

func (s *HistoryService) Save(ctx context.Context, userID uuid.UUID, profile *models.Profile, result *models.AssessmentResult, isAIGenerated bool) (*SaveResult, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: formData is required", ErrValidation)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: results are required", ErrValidation)
	}
	if err := validateScores(result); err != nil {
		return nil, err
	}

	assessment := &models.Assessment{
		ID:            uuid.New(),
		UserID:        userID,
		FormData:      datatypes.NewJSONType(*profile),
		Results:       datatypes.NewJSONType(*result),
		IsAIGenerated: isAIGenerated,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.Create(ctx, assessment); err != nil {
		return nil, err
	}

	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAssessmentSaved()
	log.Printf("💾 Assessment saved for user %s (total %d)", userID, total)
	return &SaveResult{Assessment: assessment, TotalAssessments: total}, nil
}

// List returns newest first; limit <= 0 returns everything.
func (s *HistoryService) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Assessment, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: userId is required", ErrValidation)
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

// DeleteOne removes the record and returns how many remain for the user.
func (s *HistoryService) DeleteOne(ctx context.Context, userID uuid.UUID, assessmentID string) (int64, error) {
	id, err := uuid.Parse(assessmentID)
	if err != nil {
		return 0, ErrAssessmentNotFound
	}

	if err := s.repo.DeleteOne(ctx, userID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, ErrAssessmentNotFound
		}
		return 0, err
	}

	return s.repo.CountByUser(ctx, userID)
}

func (s *HistoryService) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	deleted, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	log.Printf("🗑️ Cleared %d assessments for user %s", deleted, userID)
	return deleted, nil
}

func (s *HistoryService) Stats(ctx context.Context, userID uuid.UUID) (*models.AssessmentStats, error) {
	records, err := s.repo.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	stats := ComputeStats(records)
	return &stats, nil
}

func (s *HistoryService) CountAll(ctx context.Context) (int64, error) {
	return s.repo.CountAll(ctx)
}

// ComputeStats aggregates records ordered newest first. Means round half away
// from zero.
func ComputeStats(records []models.Assessment) models.AssessmentStats {
	var stats models.AssessmentStats
	if len(records) == 0 {
		return stats
	}

	var overall, academic, extracurricular int
	stats.HighestScore = math.MinInt
	stats.LowestScore = math.MaxInt
	for _, rec := range records {
		r := rec.Results.Data()
		overall += r.OverallScore
		academic += r.AcademicScore
		extracurricular += r.ExtracurricularScore
		stats.HighestScore = max(stats.HighestScore, r.OverallScore)
		stats.LowestScore = min(stats.LowestScore, r.OverallScore)
	}

	n := float64(len(records))
	stats.TotalAssessments = len(records)
	stats.AverageOverallScore = int(math.Round(float64(overall) / n))
	stats.AverageAcademicScore = int(math.Round(float64(academic) / n))
	stats.AverageExtracurricularScore = int(math.Round(float64(extracurricular) / n))

	if len(records) >= 2 {
		newest := records[0].Results.Data().OverallScore
		oldest := records[len(records)-1].Results.Data().OverallScore
		stats.Improvement = newest - oldest
	}

	last := records[0].CreatedAt
	stats.LastAssessmentDate = &last
	return stats
}

func validateScores(r *models.AssessmentResult) error {
	for name, v := range map[string]int{
		"overallScore":         r.OverallScore,
		"academicScore":        r.AcademicScore,
		"extracurricularScore": r.ExtracurricularScore,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: %s must be between 0 and 100", ErrValidation, name)
		}
	}
	return nil
}
