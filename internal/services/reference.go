package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"

	"ivyx/readiness-api/internal/models"
	"ivyx/readiness-api/internal/repositories"
)

var ErrReferencesDisabled = errors.New("reference library is not configured")

const referenceNotesLimit = 3

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type ReferenceLibrary interface {
	Enabled() bool
	// Retrieve returns the reference chunks closest to query.
	Retrieve(ctx context.Context, query string) ([]SearchResult, error)
	IngestUpload(ctx context.Context, file *multipart.FileHeader, docType string) (*models.ReferenceDocument, error)
	IngestReader(ctx context.Context, r io.Reader, originalName, docType string) (*models.ReferenceDocument, error)
	List(ctx context.Context) ([]models.ReferenceDocument, error)
}

type referenceLibrary struct {
	storage  StorageService
	parser   PDFParserService
	chunker  TextChunker
	embedder Embedder
	vectors  QdrantService
	docs     repositories.DocumentRepository
}

func NewReferenceLibrary(
	storage StorageService,
	parser PDFParserService,
	chunker TextChunker,
	embedder Embedder,
	vectors QdrantService,
	docs repositories.DocumentRepository,
) ReferenceLibrary {
	return &referenceLibrary{
		storage:  storage,
		parser:   parser,
		chunker:  chunker,
		embedder: embedder,
		vectors:  vectors,
		docs:     docs,
	}
}

func (l *referenceLibrary) Enabled() bool {
	return true
}

func (l *referenceLibrary) Retrieve(ctx context.Context, query string) ([]SearchResult, error) {
	embedding, err := l.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed reference query: %w", err)
	}
	return l.vectors.SearchSimilar(ctx, embedding, "", referenceNotesLimit)
}

func (l *referenceLibrary) IngestUpload(ctx context.Context, file *multipart.FileHeader, docType string) (*models.ReferenceDocument, error) {
	filename, path, err := l.storage.SaveUpload(file, docType)
	if err != nil {
		return nil, err
	}
	return l.ingest(ctx, filename, path, file.Filename, docType)
}

func (l *referenceLibrary) IngestReader(ctx context.Context, r io.Reader, originalName, docType string) (*models.ReferenceDocument, error) {
	filename, path, err := l.storage.SaveReader(r, originalName, docType)
	if err != nil {
		return nil, err
	}
	return l.ingest(ctx, filename, path, originalName, docType)
}

// ingest parses, chunks, embeds and indexes a stored PDF. The stored file is
// removed again when any step fails.
func (l *referenceLibrary) ingest(ctx context.Context, filename, path, originalName, docType string) (doc *models.ReferenceDocument, err error) {
	docID := uuid.New()
	defer func() {
		if err != nil {
			if rmErr := l.storage.DeleteFile(filename); rmErr != nil {
				log.Printf("⚠️ Failed to remove %s after ingest error: %v", filename, rmErr)
			}
		}
	}()

	content, err := l.parser.ExtractText(path)
	if err != nil {
		return nil, err
	}

	chunks := l.chunker.ChunkText(content.Text, DefaultChunkSize, DefaultChunkOverlap)
	embeddings := make([][]float32, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := l.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d: %w", i+1, err)
		}
		embeddings = append(embeddings, embedding)
	}

	if err := l.vectors.UpsertChunks(ctx, docID.String(), docType, chunks, embeddings); err != nil {
		return nil, err
	}

	doc = &models.ReferenceDocument{
		ID:               docID,
		Filename:         filename,
		OriginalFileName: originalName,
		DocType:          strings.TrimSpace(docType),
		FilePath:         path,
		ChunkCount:       len(chunks),
		CreatedAt:        time.Now().UTC(),
	}
	if err := l.docs.Create(ctx, doc); err != nil {
		if delErr := l.vectors.DeleteDocument(ctx, docID.String()); delErr != nil {
			log.Printf("⚠️ Failed to roll back vectors for %s: %v", docID, delErr)
		}
		return nil, err
	}

	log.Printf("📚 Reference %q ingested: %d pages, %d chunks", originalName, content.PageCount, len(chunks))
	return doc, nil
}

func (l *referenceLibrary) List(ctx context.Context) ([]models.ReferenceDocument, error) {
	return l.docs.List(ctx)
}

type disabledReferenceLibrary struct{}

// NewDisabledReferenceLibrary is used when Qdrant or the embedding key is missing.
func NewDisabledReferenceLibrary() ReferenceLibrary {
	return disabledReferenceLibrary{}
}

func (disabledReferenceLibrary) Enabled() bool { return false }

func (disabledReferenceLibrary) Retrieve(context.Context, string) ([]SearchResult, error) {
	return nil, nil
}

func (disabledReferenceLibrary) IngestUpload(context.Context, *multipart.FileHeader, string) (*models.ReferenceDocument, error) {
	return nil, ErrReferencesDisabled
}

func (disabledReferenceLibrary) IngestReader(context.Context, io.Reader, string, string) (*models.ReferenceDocument, error) {
	return nil, ErrReferencesDisabled
}

func (disabledReferenceLibrary) List(context.Context) ([]models.ReferenceDocument, error) {
	return []models.ReferenceDocument{}, nil
}
