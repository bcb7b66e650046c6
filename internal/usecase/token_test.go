package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/infra/security"
)

func newTokenFixture(t *testing.T) (*TokenService, *mockAccountRepository, *time.Time) {
	t.Helper()

	accounts := newMockAccountRepository()
	signer, err := security.NewActionTokenSigner(testSecret, "gkart-test")
	if err != nil {
		t.Fatalf("NewActionTokenSigner returned error: %v", err)
	}
	now := testNow
	svc := NewTokenService(signer, accounts, TokenServiceOptions{ActivationTTL: 72 * time.Hour, ResetTTL: time.Hour}).
		WithClock(func() time.Time { return now })
	return svc, accounts, &now
}

func TestTokenServiceRoundTrip(t *testing.T) {
	svc, accounts, _ := newTokenFixture(t)
	accounts.put(domain.Account{ID: "acc-1", Email: "a@example.com", PasswordHash: "hashed:x"})

	token, err := svc.Issue(context.Background(), "acc-1", domain.TokenPurposeActivation)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	id, err := svc.Verify(context.Background(), token, domain.TokenPurposeActivation)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if id != "acc-1" {
		t.Fatalf("expected acc-1, got %q", id)
	}
}

func TestTokenServiceRejectsOtherPurpose(t *testing.T) {
	svc, accounts, _ := newTokenFixture(t)
	accounts.put(domain.Account{ID: "acc-1", Email: "a@example.com"})

	token, err := svc.Issue(context.Background(), "acc-1", domain.TokenPurposeActivation)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := svc.Verify(context.Background(), token, domain.TokenPurposeReset); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken, got %v", err)
	}
}

func TestTokenServiceExpiry(t *testing.T) {
	svc, accounts, now := newTokenFixture(t)
	accounts.put(domain.Account{ID: "acc-1", Email: "a@example.com"})

	token, err := svc.Issue(context.Background(), "acc-1", domain.TokenPurposeReset)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	*now = now.Add(59 * time.Minute)
	if _, err := svc.Verify(context.Background(), token, domain.TokenPurposeReset); err != nil {
		t.Fatalf("expected token valid before expiry, got %v", err)
	}

	*now = now.Add(2 * time.Minute)
	if _, err := svc.Verify(context.Background(), token, domain.TokenPurposeReset); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestTokenServiceStaleAfterStateChange(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.Account)
	}{
		{name: "activation", mutate: func(a *domain.Account) { a.IsActive = true }},
		{name: "password change", mutate: func(a *domain.Account) { a.PasswordHash = "hashed:new" }},
		{name: "login", mutate: func(a *domain.Account) {
			at := testNow.Add(time.Minute)
			a.LastLoginAt = &at
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, accounts, _ := newTokenFixture(t)
			account := domain.Account{ID: "acc-1", Email: "a@example.com", PasswordHash: "hashed:old"}
			accounts.put(account)

			token, err := svc.Issue(context.Background(), "acc-1", domain.TokenPurposeActivation)
			if err != nil {
				t.Fatalf("Issue returned error: %v", err)
			}

			tc.mutate(&account)
			accounts.put(account)

			id, err := svc.Verify(context.Background(), token, domain.TokenPurposeActivation)
			if !errors.Is(err, ErrInvalidOrExpiredToken) || !errors.Is(err, ErrTokenStale) {
				t.Fatalf("expected stale token error, got %v", err)
			}
			if id != "acc-1" {
				t.Fatalf("expected stale verify to report acc-1, got %q", id)
			}
		})
	}
}

func TestTokenServiceTamperedAndUnknown(t *testing.T) {
	svc, accounts, _ := newTokenFixture(t)
	accounts.put(domain.Account{ID: "acc-1", Email: "a@example.com"})

	token, err := svc.Issue(context.Background(), "acc-1", domain.TokenPurposeActivation)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	for _, bad := range []string{"", "garbage", token + "x", token[:len(token)-4]} {
		if _, err := svc.Verify(context.Background(), bad, domain.TokenPurposeActivation); !errors.Is(err, ErrInvalidOrExpiredToken) {
			t.Fatalf("expected ErrInvalidOrExpiredToken for %q, got %v", bad, err)
		}
	}

	if _, err := svc.Issue(context.Background(), "missing", domain.TokenPurposeActivation); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestTokenServiceDeletedAccount(t *testing.T) {
	svc, accounts, _ := newTokenFixture(t)
	accounts.put(domain.Account{ID: "acc-1", Email: "a@example.com"})

	token, err := svc.Issue(context.Background(), "acc-1", domain.TokenPurposeActivation)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	delete(accounts.accounts, "acc-1")

	if _, err := svc.Verify(context.Background(), token, domain.TokenPurposeActivation); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken, got %v", err)
	}
}
