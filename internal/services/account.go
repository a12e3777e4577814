package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ivyx/readiness-api/internal/models"
	"ivyx/readiness-api/internal/repositories"
)

var (
	ErrEmailTaken         = errors.New("user already exists with this email")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

const (
	minPasswordLength = 6
	minFullNameLength = 2
	// bcrypt ignores or rejects anything past this
	maxPasswordBytes = 72
)

var validGrades = []string{"6", "7", "8", "9", "10", "11", "12"}

// dummyPasswordHash is compared against when the email is unknown.
var dummyPasswordHash, _ = bcrypt.GenerateFromPassword([]byte("readiness-timing-equaliser"), bcrypt.DefaultCost)

type AccountService struct {
	users       repositories.UserRepository
	assessments repositories.AssessmentRepository
	adminEmails []string
	cost        int
}

func NewAccountService(users repositories.UserRepository, assessments repositories.AssessmentRepository, adminEmails []string) *AccountService {
	normalized := make([]string, 0, len(adminEmails))
	for _, e := range adminEmails {
		if e = NormalizeEmail(e); e != "" {
			normalized = append(normalized, e)
		}
	}
	return &AccountService{
		users:       users,
		assessments: assessments,
		adminEmails: normalized,
		cost:        bcrypt.DefaultCost,
	}
}

// WithCost lowers the bcrypt cost; only tests should call it.
func (s *AccountService) WithCost(cost int) *AccountService {
	s.cost = cost
	return s
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateSignup(req *models.SignupRequest) error {
	if strings.TrimSpace(req.FullName) == "" || strings.TrimSpace(req.Email) == "" ||
		req.Password == "" || strings.TrimSpace(req.Grade) == "" || strings.TrimSpace(req.Country) == "" {
		return fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if len([]rune(strings.TrimSpace(req.FullName))) < minFullNameLength {
		return fmt.Errorf("%w: full name must be at least 2 characters", ErrValidation)
	}
	email := strings.TrimSpace(req.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return fmt.Errorf("%w: please provide a valid email", ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}
	if len(req.Password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most 72 bytes", ErrValidation)
	}
	if !slices.Contains(validGrades, strings.TrimSpace(req.Grade)) {
		return fmt.Errorf("%w: please select a valid grade", ErrValidation)
	}
	return nil
}

func (s *AccountService) Create(ctx context.Context, req *models.SignupRequest) (*models.User, error) {
	if err := ValidateSignup(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	email := NormalizeEmail(req.Email)
	role := models.RoleStudent
	if slices.Contains(s.adminEmails, email) {
		role = models.RoleAdmin
	}

	user := &models.User{
		ID:           uuid.New(),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		PasswordHash: string(hash),
		Grade:        strings.TrimSpace(req.Grade),
		Country:      strings.TrimSpace(req.Country),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	log.Printf("✅ User created: %s (%s)", user.ID, user.Role)
	return user, nil
}

// FindByCredential verifies a password against the stored bcrypt digest. An
// unknown email still pays for one comparison.
func (s *AccountService) FindByCredential(ctx context.Context, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AccountService) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AccountService) ListAll(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *AccountService) Count(ctx context.Context) (int64, error) {
	return s.users.Count(ctx)
}

// Delete removes the user and then their history.
func (s *AccountService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	deleted, err := s.assessments.DeleteByUser(ctx, id)
	if err != nil {
		return fmt.Errorf("user deleted but history cleanup failed: %w", err)
	}
	log.Printf("🗑️ User %s deleted with %d assessments", id, deleted)
	return nil
}
