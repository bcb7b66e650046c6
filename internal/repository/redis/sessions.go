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

const (
	defaultSessionPrefix = "session"
	defaultSessionTTL    = time.Hour

	fieldAccountID  = "account_id"
	fieldIP         = "ip"
	fieldUserAgent  = "user_agent"
	fieldCreatedAt  = "created_at"
	fieldLastSeenAt = "last_seen_at"
)

// SessionStore keeps login sessions as Redis hashes whose TTL is refreshed on activity.
// A per-account set indexes session ids so every session of an account can be revoked.
type SessionStore struct {
	client *red.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionStore constructs a Redis-backed session store.
func NewSessionStore(client *red.Client, keyPrefix string, ttl time.Duration) *SessionStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultSessionPrefix
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

// WithClock overrides the internal clock, used in tests.
func (s *SessionStore) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// TTL reports the idle timeout applied to sessions.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Create stores a new session.
func (s *SessionStore) Create(ctx context.Context, session domain.Session) error {
	key := s.key(session.ID)
	if key == "" {
		return errors.New("session id is required")
	}
	if strings.TrimSpace(session.AccountID) == "" {
		return errors.New("account id is required")
	}

	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}
	lastSeen := session.LastSeenAt
	if lastSeen.IsZero() {
		lastSeen = createdAt
	}

	index := s.accountKey(session.AccountID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		fieldAccountID:  session.AccountID,
		fieldIP:         session.IP,
		fieldUserAgent:  session.UserAgent,
		fieldCreatedAt:  strconv.FormatInt(createdAt.Unix(), 10),
		fieldLastSeenAt: strconv.FormatInt(lastSeen.Unix(), 10),
	})
	pipe.Expire(ctx, key, s.ttl)
	pipe.SAdd(ctx, index, session.ID)
	pipe.Expire(ctx, index, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store session: %w", err)
	}
	return nil
}

// Get loads a live session.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	key := s.key(sessionID)
	if key == "" {
		return nil, errors.New("session id is required")
	}

	values, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall session: %w", err)
	}
	accountID := strings.TrimSpace(values[fieldAccountID])
	if accountID == "" {
		return nil, repository.ErrNotFound
	}

	createdAt, err := parseUnix(values[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	lastSeen, err := parseUnix(values[fieldLastSeenAt])
	if err != nil {
		return nil, fmt.Errorf("parse last_seen_at: %w", err)
	}

	return &domain.Session{
		ID:         strings.TrimSpace(sessionID),
		AccountID:  accountID,
		IP:         values[fieldIP],
		UserAgent:  values[fieldUserAgent],
		CreatedAt:  createdAt,
		LastSeenAt: lastSeen,
		ExpiresAt:  lastSeen.Add(s.ttl),
	}, nil
}

// Touch slides the session expiry forward from at.
func (s *SessionStore) Touch(ctx context.Context, sessionID string, at time.Time) error {
	key := s.key(sessionID)
	if key == "" {
		return errors.New("session id is required")
	}

	alive, err := s.client.Expire(ctx, key, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis expire session: %w", err)
	}
	if !alive {
		return repository.ErrNotFound
	}

	if err := s.client.HSet(ctx, key, fieldLastSeenAt, strconv.FormatInt(at.UTC().Unix(), 10)).Err(); err != nil {
		return fmt.Errorf("redis touch session: %w", err)
	}
	return nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	key := s.key(sessionID)
	if key == "" {
		return errors.New("session id is required")
	}

	accountID, err := s.client.HGet(ctx, key, fieldAccountID).Result()
	if err != nil && !errors.Is(err, red.Nil) {
		return fmt.Errorf("redis hget session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if accountID != "" {
		pipe.SRem(ctx, s.accountKey(accountID), strings.TrimSpace(sessionID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// DeleteAllForAccount revokes every session of the account except keepSessionID.
func (s *SessionStore) DeleteAllForAccount(ctx context.Context, accountID string, keepSessionID string) (int, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return 0, errors.New("account id is required")
	}

	index := s.accountKey(accountID)
	ids, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return 0, fmt.Errorf("redis smembers sessions: %w", err)
	}

	revoked := 0
	for _, id := range ids {
		if id == keepSessionID {
			continue
		}
		removed, err := s.client.Del(ctx, s.key(id)).Result()
		if err != nil {
			return revoked, fmt.Errorf("redis delete session: %w", err)
		}
		if err := s.client.SRem(ctx, index, id).Err(); err != nil {
			return revoked, fmt.Errorf("redis srem session: %w", err)
		}
		revoked += int(removed)
	}
	return revoked, nil
}

func (s *SessionStore) key(sessionID string) string {
	trimmed := strings.TrimSpace(sessionID)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", s.prefix, trimmed)
}

func (s *SessionStore) accountKey(accountID string) string {
	return fmt.Sprintf("%s:account:%s", s.prefix, accountID)
}

func parseUnix(raw string) (time.Time, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(v, 0).UTC(), nil
}

var _ port.SessionStore = (*SessionStore)(nil)
