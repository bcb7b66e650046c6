package port

import (
	"context"
	"time"

	"github.com/Surajgupta63/GKart/internal/core/domain"
)

// SessionStore keeps login sessions with a sliding expiry.
type SessionStore interface {
	Create(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Touch(ctx context.Context, sessionID string, at time.Time) error
	Delete(ctx context.Context, sessionID string) error
	// DeleteAllForAccount removes every session of the account except keepSessionID.
	DeleteAllForAccount(ctx context.Context, accountID string, keepSessionID string) (int, error)
}

// ResetSessionStore keeps single-use password reset capabilities.
type ResetSessionStore interface {
	Create(ctx context.Context, session domain.ResetSession) error
	Get(ctx context.Context, id string) (*domain.ResetSession, error)
	// Consume atomically reads and deletes the capability.
	Consume(ctx context.Context, id string) (*domain.ResetSession, error)
}
