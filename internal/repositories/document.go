package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ivyx/readiness-api/internal/models"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *models.ReferenceDocument) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ReferenceDocument, error)
	List(ctx context.Context) ([]models.ReferenceDocument, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create implements DocumentRepository.
func (d *documentRepository) Create(ctx context.Context, document *models.ReferenceDocument) error {
	if err := d.db.WithContext(ctx).Create(document).Error; err != nil {
		return fmt.Errorf("failed to create reference document: %w", err)
	}

	return nil
}

// FindByID implements DocumentRepository.
func (d *documentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ReferenceDocument, error) {
	var doc models.ReferenceDocument
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to find reference document: %w", err)
	}

	return &doc, nil
}

// List implements DocumentRepository.
func (d *documentRepository) List(ctx context.Context) ([]models.ReferenceDocument, error) {
	var docs []models.ReferenceDocument
	if err := d.db.WithContext(ctx).Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list reference documents: %w", err)
	}

	return docs, nil
}
