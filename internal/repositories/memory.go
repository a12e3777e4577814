package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"ivyx/readiness-api/internal/models"
)

// In-memory implementations back STORE_DRIVER=memory and the test suites.

type memoryAssessment struct {
	seq        uint64
	assessment models.Assessment
}

type memoryAssessmentRepository struct {
	mu      sync.RWMutex
	nextSeq uint64
	records map[uuid.UUID]memoryAssessment
}

func NewMemoryAssessmentRepository() AssessmentRepository {
	return &memoryAssessmentRepository{records: make(map[uuid.UUID]memoryAssessment)}
}

func (r *memoryAssessmentRepository) Create(_ context.Context, assessment *models.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if assessment.ID == uuid.Nil {
		assessment.ID = uuid.New()
	}
	r.nextSeq++
	r.records[assessment.ID] = memoryAssessment{seq: r.nextSeq, assessment: *assessment}
	return nil
}

func (r *memoryAssessmentRepository) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]models.Assessment, error) {
	r.mu.RLock()
	matches := make([]memoryAssessment, 0)
	for _, rec := range r.records {
		if rec.assessment.UserID == userID {
			matches = append(matches, rec)
		}
	}
	r.mu.RUnlock()

	// Newest first; insertion order breaks timestamp ties.
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.assessment.CreatedAt.Equal(b.assessment.CreatedAt) {
			return a.assessment.CreatedAt.After(b.assessment.CreatedAt)
		}
		return a.seq > b.seq
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]models.Assessment, len(matches))
	for i, rec := range matches {
		out[i] = rec.assessment
	}
	return out, nil
}

func (r *memoryAssessmentRepository) CountByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, rec := range r.records {
		if rec.assessment.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *memoryAssessmentRepository) DeleteOne(_ context.Context, userID, assessmentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[assessmentID]
	if !ok || rec.assessment.UserID != userID {
		return ErrNotFound
	}
	delete(r.records, assessmentID)
	return nil
}

func (r *memoryAssessmentRepository) DeleteByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, rec := range r.records {
		if rec.assessment.UserID == userID {
			delete(r.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memoryAssessmentRepository) CountAll(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.records)), nil
}

type memoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]models.User
	byEmail map[string]uuid.UUID
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:    make(map[uuid.UUID]models.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *memoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return ErrDuplicateEmail
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	user := r.byID[id]
	return &user, nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *memoryUserRepository) List(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	users := make([]models.User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, u)
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *memoryUserRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, user.Email)
	return nil
}

func (r *memoryUserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

type memoryDocumentRepository struct {
	mu   sync.RWMutex
	docs []models.ReferenceDocument
}

func NewMemoryDocumentRepository() DocumentRepository {
	return &memoryDocumentRepository{}
}

func (r *memoryDocumentRepository) Create(_ context.Context, document *models.ReferenceDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if document.ID == uuid.Nil {
		document.ID = uuid.New()
	}
	r.docs = append(r.docs, *document)
	return nil
}

func (r *memoryDocumentRepository) FindByID(_ context.Context, id uuid.UUID) (*models.ReferenceDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.docs {
		if d.ID == id {
			doc := d
			return &doc, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryDocumentRepository) List(_ context.Context) ([]models.ReferenceDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.ReferenceDocument, len(r.docs))
	for i := range r.docs {
		out[i] = r.docs[len(r.docs)-1-i]
	}
	return out, nil
}
