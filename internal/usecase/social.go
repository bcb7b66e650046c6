package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/core/port"
	"github.com/Surajgupta63/GKart/internal/repository"
)

// SocialLogin is the identity asserted by a third-party provider callback.
type SocialLogin struct {
	Provider       string
	ProviderUserID string
	Email          string
	Name           string
	PictureURL     string
}

func (l SocialLogin) normalized() SocialLogin {
	l.Provider = strings.ToLower(strings.TrimSpace(l.Provider))
	l.ProviderUserID = strings.TrimSpace(l.ProviderUserID)
	l.Email = domain.NormalizeEmail(l.Email)
	l.Name = strings.TrimSpace(l.Name)
	l.PictureURL = strings.TrimSpace(l.PictureURL)
	return l
}

// ResolutionOutcome says which branch of the linking policy applied.
type ResolutionOutcome string

const (
	OutcomeAlreadyLinked  ResolutionOutcome = "already_linked"
	OutcomeLinkedExisting ResolutionOutcome = "linked_existing"
	OutcomeCreatedNew     ResolutionOutcome = "created_new"
)

// Resolution is the account a social login maps to.
type Resolution struct {
	Account domain.Account
	Outcome ResolutionOutcome
}

// SocialLinkResolver maps provider identities onto accounts, deduplicating by email.
type SocialLinkResolver struct {
	accounts   port.AccountRepository
	identities port.SocialIdentityRepository
	events     port.EventPublisher
	metrics    IdentityMetrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewSocialLinkResolver(accounts port.AccountRepository, identities port.SocialIdentityRepository, events port.EventPublisher, metrics IdentityMetrics, logger *zap.Logger) *SocialLinkResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SocialLinkResolver{
		accounts:   accounts,
		identities: identities,
		events:     events,
		metrics:    metricsOrNoop(metrics),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock for deterministic testing.
func (r *SocialLinkResolver) WithClock(now func() time.Time) *SocialLinkResolver {
	if now != nil {
		r.now = now
	}
	return r
}

// Resolve applies the linking policy: existing link, then existing email, then a new account.
func (r *SocialLinkResolver) Resolve(ctx context.Context, login SocialLogin) (Resolution, error) {
	login = login.normalized()
	if login.Provider == "" || login.ProviderUserID == "" || login.Email == "" {
		return Resolution{}, ErrInvalidSocialLogin
	}

	identity, err := r.identities.GetByProvider(ctx, login.Provider, login.ProviderUserID)
	switch {
	case err == nil:
		account, err := r.accounts.GetByID(ctx, identity.AccountID)
		if err != nil {
			return Resolution{}, fmt.Errorf("load linked account: %w", err)
		}
		return Resolution{Account: *account, Outcome: OutcomeAlreadyLinked}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return Resolution{}, fmt.Errorf("lookup social identity: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		existing, err := r.accounts.GetByEmail(ctx, login.Email)
		if err == nil {
			return r.linkExisting(ctx, *existing, login)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return Resolution{}, fmt.Errorf("lookup account by email: %w", err)
		}

		resolution, err := r.createNew(ctx, login)
		if errors.Is(err, repository.ErrDuplicate) {
			r.logger.Debug("social sign-up lost email race, retrying as link",
				zap.String("provider", login.Provider))
			continue
		}
		return resolution, err
	}

	return Resolution{}, fmt.Errorf("resolve social login: %w", repository.ErrDuplicate)
}

func (r *SocialLinkResolver) linkExisting(ctx context.Context, account domain.Account, login SocialLogin) (Resolution, error) {
	at := r.now()
	identity := domain.SocialIdentity{
		ID:             uuid.NewString(),
		AccountID:      account.ID,
		Provider:       login.Provider,
		ProviderUserID: login.ProviderUserID,
		Email:          login.Email,
		CreatedAt:      at,
	}

	if err := r.identities.Link(ctx, identity); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return Resolution{}, fmt.Errorf("link social identity: %w", err)
		}
		// Either the same identity was linked concurrently, or the account already
		// carries a different identity from this provider.
		linked, lookupErr := r.identities.GetByProvider(ctx, login.Provider, login.ProviderUserID)
		if lookupErr != nil || linked.AccountID != account.ID {
			return Resolution{}, fmt.Errorf("%w: account already linked to another %s identity", ErrInvalidSocialLogin, login.Provider)
		}
		return Resolution{Account: account, Outcome: OutcomeAlreadyLinked}, nil
	}

	if !account.IsActive {
		activated, err := r.accounts.Activate(ctx, account.ID, at)
		if err != nil {
			return Resolution{}, fmt.Errorf("activate linked account: %w", err)
		}
		account.IsActive = true
		account.UpdatedAt = at
		if activated {
			r.metrics.IncActivation("social_link")
			r.publishActivated(ctx, account.ID, login.Provider, at)
		}
	}

	return Resolution{Account: account, Outcome: OutcomeLinkedExisting}, nil
}

func (r *SocialLinkResolver) createNew(ctx context.Context, login SocialLogin) (Resolution, error) {
	at := r.now()
	first, last := splitName(login.Name)
	picture := login.PictureURL
	if picture == "" {
		picture = domain.DefaultProfilePicture
	}

	account := domain.Account{
		ID:         uuid.NewString(),
		Email:      login.Email,
		Username:   socialUsername(login),
		IsActive:   true,
		AuthSource: domain.SocialSource(login.Provider),
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	profile := domain.Profile{
		AccountID:      account.ID,
		FirstName:      first,
		LastName:       last,
		ProfilePicture: picture,
		UpdatedAt:      at,
	}
	identity := domain.SocialIdentity{
		ID:             uuid.NewString(),
		AccountID:      account.ID,
		Provider:       login.Provider,
		ProviderUserID: login.ProviderUserID,
		Email:          login.Email,
		CreatedAt:      at,
	}

	if err := r.identities.CreateAccountWithIdentity(ctx, account, profile, identity); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return Resolution{}, err
		}
		return Resolution{}, fmt.Errorf("create social account: %w", err)
	}

	r.metrics.IncRegistration("social")
	if r.events != nil {
		event := domain.AccountRegisteredEvent{
			EventID:      uuid.NewString(),
			AccountID:    account.ID,
			Username:     account.Username,
			Email:        account.Email,
			AuthSource:   account.AuthSource,
			RegisteredAt: at,
		}
		if err := r.events.PublishAccountRegistered(ctx, event); err != nil {
			r.logger.Warn("publish account registered event failed", zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	return Resolution{Account: account, Outcome: OutcomeCreatedNew}, nil
}

func (r *SocialLinkResolver) publishActivated(ctx context.Context, accountID, provider string, at time.Time) {
	if r.events == nil {
		return
	}
	event := domain.AccountActivatedEvent{
		EventID:     uuid.NewString(),
		AccountID:   accountID,
		ActivatedAt: at,
		Via:         "social:" + provider,
	}
	if err := r.events.PublishAccountActivated(ctx, event); err != nil {
		r.logger.Warn("publish account activated event failed", zap.String("account_id", accountID), zap.Error(err))
	}
}

// socialUsername is the provider display name without spaces, else the email local part.
func socialUsername(login SocialLogin) string {
	if name := strings.Join(strings.Fields(login.Name), ""); name != "" {
		return name
	}
	return domain.UsernameFromEmail(login.Email)
}

func splitName(name string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	return first, strings.TrimSpace(last)
}
