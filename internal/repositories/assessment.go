package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ivyx/readiness-api/internal/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type AssessmentRepository interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	// ListByUser returns newest first; limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Assessment, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteOne(ctx context.Context, userID, assessmentID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CountAll(ctx context.Context) (int64, error)
}

type assessmentRepository struct {
	db *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	if err := r.db.WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	return nil
}

func (r *assessmentRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Assessment, error) {
	var assessments []models.Assessment

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&assessments).Error; err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	return assessments, nil
}

func (r *assessmentRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Assessment{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}

func (r *assessmentRepository) DeleteOne(ctx context.Context, userID, assessmentID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", assessmentID, userID).
		Delete(&models.Assessment{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete assessment: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *assessmentRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Assessment{})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear assessments: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (r *assessmentRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Assessment{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}
