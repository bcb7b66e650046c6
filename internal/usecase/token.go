package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/core/port"
	"github.com/Surajgupta63/GKart/internal/infra/security"
	"github.com/Surajgupta63/GKart/internal/repository"
)

const (
	defaultActivationTTL = 72 * time.Hour
	defaultResetTTL      = time.Hour
)

// TokenServiceOptions configures link lifetimes.
type TokenServiceOptions struct {
	ActivationTTL time.Duration
	ResetTTL      time.Duration
}

// TokenService issues and verifies activation and reset links. Nothing is persisted:
// a token is bound to the account state it was issued against.
type TokenService struct {
	signer        *security.ActionTokenSigner
	accounts      port.AccountRepository
	activationTTL time.Duration
	resetTTL      time.Duration
	now           func() time.Time
}

func NewTokenService(signer *security.ActionTokenSigner, accounts port.AccountRepository, opts TokenServiceOptions) *TokenService {
	svc := &TokenService{
		signer:        signer,
		accounts:      accounts,
		activationTTL: opts.ActivationTTL,
		resetTTL:      opts.ResetTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
	if svc.activationTTL <= 0 {
		svc.activationTTL = defaultActivationTTL
	}
	if svc.resetTTL <= 0 {
		svc.resetTTL = defaultResetTTL
	}
	return svc
}

// WithClock overrides the clock for deterministic testing.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		s.now = now
	}
	return s
}

// TTL returns the lifetime of tokens with the given purpose.
func (s *TokenService) TTL(purpose domain.TokenPurpose) time.Duration {
	if purpose == domain.TokenPurposeReset {
		return s.resetTTL
	}
	return s.activationTTL
}

// Issue loads the account and signs a token for purpose.
func (s *TokenService) Issue(ctx context.Context, accountID string, purpose domain.TokenPurpose) (string, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrAccountNotFound
		}
		return "", fmt.Errorf("load account: %w", err)
	}
	issued, err := s.IssueFor(*account, purpose)
	if err != nil {
		return "", err
	}
	return issued.Value, nil
}

// IssueFor signs a token against an already loaded account.
func (s *TokenService) IssueFor(account domain.Account, purpose domain.TokenPurpose) (domain.IssuedToken, error) {
	if account.ID == "" {
		return domain.IssuedToken{}, fmt.Errorf("account id is required")
	}
	if !purpose.Valid() {
		return domain.IssuedToken{}, fmt.Errorf("unsupported token purpose %q", purpose)
	}

	issuedAt := s.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.TTL(purpose))

	value, err := s.signer.Sign(&security.ActionTokenClaims{
		Purpose:     string(purpose),
		Fingerprint: s.Fingerprint(account, purpose),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	if err != nil {
		return domain.IssuedToken{}, err
	}

	return domain.IssuedToken{
		Value:     value,
		AccountID: account.ID,
		Purpose:   purpose,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify returns the account id a token was issued for. Every failure matches
// ErrInvalidOrExpiredToken. When only the account state moved on, the error also
// matches ErrTokenStale and the account id is still returned.
func (s *TokenService) Verify(ctx context.Context, token string, purpose domain.TokenPurpose) (string, error) {
	account, err := s.VerifyAccount(ctx, token, purpose)
	if account == nil {
		return "", err
	}
	return account.ID, err
}

// VerifyAccount is Verify returning the account snapshot the token was checked against.
func (s *TokenService) VerifyAccount(ctx context.Context, token string, purpose domain.TokenPurpose) (*domain.Account, error) {
	if token == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	claims, err := s.signer.Parse(token, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrExpiredToken, err)
	}
	if claims.Purpose != string(purpose) || claims.Subject == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("load token subject: %w", err)
	}

	if s.Fingerprint(*account, purpose) != claims.Fingerprint {
		return account, fmt.Errorf("%w: %w", ErrInvalidOrExpiredToken, ErrTokenStale)
	}

	return account, nil
}

// Fingerprint is the state digest a token for purpose carries while account stays unchanged.
func (s *TokenService) Fingerprint(account domain.Account, purpose domain.TokenPurpose) string {
	return accountFingerprint(account, purpose)
}

// accountFingerprint changes whenever activation, a password change or a login happens.
func accountFingerprint(account domain.Account, purpose domain.TokenPurpose) string {
	lastLogin := ""
	if account.LastLoginAt != nil {
		lastLogin = strconv.FormatInt(account.LastLoginAt.UTC().Truncate(time.Microsecond).UnixMicro(), 10)
	}
	return security.StateFingerprint(
		string(purpose),
		strconv.FormatBool(account.IsActive),
		account.PasswordHash,
		lastLogin,
	)
}
