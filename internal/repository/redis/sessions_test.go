package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/repository"
)

func TestSessionStore_CreateAndGet(t *testing.T) {
	client, server := newTestRedis(t)
	store := NewSessionStore(client, "session:test", time.Hour)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	session := domain.Session{ID: "s1", AccountID: "acc-1", IP: "203.0.113.5", UserAgent: "UA", CreatedAt: now, LastSeenAt: now}
	if err := store.Create(context.Background(), session); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	got, err := store.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.AccountID != "acc-1" || got.IP != "203.0.113.5" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if !got.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected expiry %v, got %v", now.Add(time.Hour), got.ExpiresAt)
	}
	if ttl := server.TTL("session:test:s1"); ttl != time.Hour {
		t.Fatalf("expected key ttl of one hour, got %v", ttl)
	}
}

func TestSessionStore_TouchSlidesExpiry(t *testing.T) {
	client, server := newTestRedis(t)
	store := NewSessionStore(client, "session:test", time.Hour)
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := store.Create(ctx, domain.Session{ID: "s1", AccountID: "acc-1", CreatedAt: now}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	server.FastForward(50 * time.Minute)
	if err := store.Touch(ctx, "s1", now.Add(50*time.Minute)); err != nil {
		t.Fatalf("Touch returned error: %v", err)
	}

	server.FastForward(50 * time.Minute)
	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("expected session to survive after touch, got %v", err)
	}
	if !got.ExpiresAt.Equal(now.Add(110 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", got.ExpiresAt)
	}

	server.FastForward(time.Hour)
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after idle timeout, got %v", err)
	}
	if err := store.Touch(ctx, "s1", now); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound touching expired session, got %v", err)
	}
}

func TestSessionStore_DeleteAllForAccountKeepsCurrent(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewSessionStore(client, "session:test", time.Hour)
	ctx := context.Background()

	for _, id := range []string{"s1", "s2", "s3"} {
		if err := store.Create(ctx, domain.Session{ID: id, AccountID: "acc-1"}); err != nil {
			t.Fatalf("Create(%s) returned error: %v", id, err)
		}
	}
	if err := store.Create(ctx, domain.Session{ID: "other", AccountID: "acc-2"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	revoked, err := store.DeleteAllForAccount(ctx, "acc-1", "s2")
	if err != nil {
		t.Fatalf("DeleteAllForAccount returned error: %v", err)
	}
	if revoked != 2 {
		t.Fatalf("expected 2 revoked sessions, got %d", revoked)
	}
	if _, err := store.Get(ctx, "s2"); err != nil {
		t.Fatalf("expected kept session to remain, got %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected s1 to be revoked, got %v", err)
	}
	if _, err := store.Get(ctx, "other"); err != nil {
		t.Fatalf("expected other account session untouched, got %v", err)
	}
}

func TestSessionStore_DeleteIsIdempotent(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewSessionStore(client, "session:test", time.Hour)
	ctx := context.Background()

	if err := store.Create(ctx, domain.Session{ID: "s1", AccountID: "acc-1"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("second Delete returned error: %v", err)
	}
	if err := store.Delete(ctx, " "); err == nil {
		t.Fatalf("expected error for empty session id")
	}
}

func TestResetSessionStore_ConsumeOnce(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewResetSessionStore(client, "reset:test")
	now := time.Now().UTC()
	store.WithClock(func() time.Time { return now })
	ctx := context.Background()

	session := domain.ResetSession{ID: "r1", AccountID: "acc-1", Fingerprint: "fp-1", ExpiresAt: now.Add(15 * time.Minute)}
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	peeked, err := store.Get(ctx, "r1")
	if err != nil || peeked.AccountID != "acc-1" || peeked.Fingerprint != "fp-1" {
		t.Fatalf("expected Get to return session, got %+v err=%v", peeked, err)
	}

	consumed, err := store.Consume(ctx, "r1")
	if err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}
	if consumed.AccountID != "acc-1" {
		t.Fatalf("unexpected account id %s", consumed.AccountID)
	}

	if _, err := store.Consume(ctx, "r1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected second consume to fail with ErrNotFound, got %v", err)
	}
}

func TestResetSessionStore_Expires(t *testing.T) {
	client, server := newTestRedis(t)
	store := NewResetSessionStore(client, "reset:test")
	now := time.Now().UTC()
	store.WithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := store.Create(ctx, domain.ResetSession{ID: "r1", AccountID: "acc-1", ExpiresAt: now.Add(time.Minute)}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	server.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, "r1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
	if err := store.Create(ctx, domain.ResetSession{ID: "r2", AccountID: "acc-1", ExpiresAt: now.Add(-time.Second)}); err == nil {
		t.Fatalf("expected error creating already expired session")
	}
}
