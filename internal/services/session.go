package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ivyx/readiness-api/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrSessionStore = errors.New("session store unavailable")
)

const refreshKeyPrefix = "readiness:refresh:"

// SessionStore maps hashed refresh tokens to user ids.
type SessionStore interface {
	Save(ctx context.Context, key string, userID uuid.UUID, ttl time.Duration) error
	// Consume returns the owner and removes the key in one step.
	Consume(ctx context.Context, key string) (uuid.UUID, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

type redisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(ctx context.Context, url string) (SessionStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &redisSessionStore{client: client}, nil
}

func (r *redisSessionStore) Save(ctx context.Context, key string, userID uuid.UUID, ttl time.Duration) error {
	if err := r.client.Set(ctx, refreshKeyPrefix+key, userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionStore, err)
	}
	return nil
}

func (r *redisSessionStore) Consume(ctx context.Context, key string) (uuid.UUID, error) {
	val, err := r.client.GetDel(ctx, refreshKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrInvalidToken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrSessionStore, err)
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

func (r *redisSessionStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, refreshKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionStore, err)
	}
	return nil
}

func (r *redisSessionStore) Close() error {
	return r.client.Close()
}

type memorySession struct {
	userID    uuid.UUID
	expiresAt time.Time
}

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]memorySession), now: time.Now}
}

func (m *memorySessionStore) Save(_ context.Context, key string, userID uuid.UUID, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, s := range m.sessions {
		if !now.Before(s.expiresAt) {
			delete(m.sessions, k)
		}
	}
	m.sessions[key] = memorySession{userID: userID, expiresAt: now.Add(ttl)}
	return nil
}

func (m *memorySessionStore) Consume(_ context.Context, key string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	delete(m.sessions, key)
	if !m.now().Before(s.expiresAt) {
		return uuid.Nil, ErrInvalidToken
	}
	return s.userID, nil
}

func (m *memorySessionStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

func (m *memorySessionStore) Close() error {
	return nil
}

// AccessClaims are carried by the short-lived bearer token.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type SessionService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      SessionStore
	accounts   *AccountService
}

func NewSessionService(secret string, accessTTL, refreshTTL time.Duration, store SessionStore, accounts *AccountService) *SessionService {
	return &SessionService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
		accounts:   accounts,
	}
}

// Issue signs an access token and stores a fresh refresh token for user.
func (s *SessionService) Issue(ctx context.Context, user *models.User) (*models.Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessTTL)

	claims := AccessClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh := rand.Text()
	if err := s.store.Save(ctx, hashToken(refresh), user.ID, s.refreshTTL); err != nil {
		return nil, err
	}

	return &models.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt.UTC(),
	}, nil
}

// Refresh consumes a refresh token and issues a new pair. A token can be used once.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*models.Session, *models.User, error) {
	if refreshToken == "" {
		return nil, nil, ErrInvalidToken
	}

	userID, err := s.store.Consume(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, nil, err
	}

	user, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, err
	}

	session, err := s.Issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (s *SessionService) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.store.Delete(ctx, hashToken(refreshToken))
}

func (s *SessionService) ParseAccessToken(tokenStr string) (*AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
