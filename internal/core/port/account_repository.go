package port

import (
	"context"
	"time"

	"github.com/Surajgupta63/GKart/internal/core/domain"
)

// AccountRepository exposes persistence behavior for accounts.
type AccountRepository interface {
	// CreateWithProfile inserts the account and its profile atomically.
	CreateWithProfile(ctx context.Context, account domain.Account, profile domain.Profile) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	// Activate flips a pending account to active. It reports false when the account was already active.
	Activate(ctx context.Context, id string, at time.Time) (bool, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// ProfileRepository reads profile records.
type ProfileRepository interface {
	GetByAccountID(ctx context.Context, accountID string) (*domain.Profile, error)
}

// SocialIdentityRepository stores third-party identity links.
type SocialIdentityRepository interface {
	GetByProvider(ctx context.Context, provider, providerUserID string) (*domain.SocialIdentity, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.SocialIdentity, error)
	Link(ctx context.Context, identity domain.SocialIdentity) error
	// CreateAccountWithIdentity inserts account, profile and identity in one transaction.
	CreateAccountWithIdentity(ctx context.Context, account domain.Account, profile domain.Profile, identity domain.SocialIdentity) error
}
