package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/core/port"
	"github.com/Surajgupta63/GKart/internal/repository"
)

const defaultResetSessionPrefix = "reset_session"

// ResetSessionStore persists password reset capabilities. Each entry can be consumed once.
type ResetSessionStore struct {
	client *red.Client
	prefix string
	now    func() time.Time
}

// NewResetSessionStore constructs a Redis-backed reset session store.
func NewResetSessionStore(client *red.Client, keyPrefix string) *ResetSessionStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultResetSessionPrefix
	}
	return &ResetSessionStore{client: client, prefix: prefix, now: time.Now}
}

// WithClock overrides the internal clock, used in tests.
func (s *ResetSessionStore) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Create stores the capability until its expiry.
func (s *ResetSessionStore) Create(ctx context.Context, session domain.ResetSession) error {
	key := s.key(session.ID)
	if key == "" {
		return errors.New("reset session id is required")
	}
	if strings.TrimSpace(session.AccountID) == "" {
		return errors.New("account id is required")
	}
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("reset session already expired")
	}

	if err := s.client.Set(ctx, key, encodeResetSession(session), ttl).Err(); err != nil {
		return fmt.Errorf("redis set reset session: %w", err)
	}
	return nil
}

// Get reads the capability without consuming it.
func (s *ResetSessionStore) Get(ctx context.Context, id string) (*domain.ResetSession, error) {
	key := s.key(id)
	if key == "" {
		return nil, repository.ErrNotFound
	}

	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get reset session: %w", err)
	}
	return decodeResetSession(id, value)
}

// Consume reads and deletes the capability in one GETDEL so that only one caller can use it.
func (s *ResetSessionStore) Consume(ctx context.Context, id string) (*domain.ResetSession, error) {
	key := s.key(id)
	if key == "" {
		return nil, repository.ErrNotFound
	}

	value, err := s.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis getdel reset session: %w", err)
	}
	return decodeResetSession(id, value)
}

func (s *ResetSessionStore) key(id string) string {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", s.prefix, trimmed)
}

func encodeResetSession(session domain.ResetSession) string {
	return strings.Join([]string{
		session.AccountID,
		strconv.FormatInt(session.ExpiresAt.UTC().Unix(), 10),
		session.Fingerprint,
	}, "|")
}

func decodeResetSession(id, value string) (*domain.ResetSession, error) {
	parts := strings.SplitN(value, "|", 3)
	if len(parts) != 3 || parts[0] == "" {
		return nil, fmt.Errorf("decode reset session: malformed value")
	}
	expiresAt, err := parseUnix(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode reset session expiry: %w", err)
	}
	return &domain.ResetSession{
		ID:          strings.TrimSpace(id),
		AccountID:   parts[0],
		Fingerprint: parts[2],
		ExpiresAt:   expiresAt,
	}, nil
}

var _ port.ResetSessionStore = (*ResetSessionStore)(nil)
