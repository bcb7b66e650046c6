package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/repository"
)

func TestSocialIdentityRepository_GetByProvider(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSocialIdentityRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM gkart\.social_identities WHERE provider = \$1 AND provider_user_id = \$2`).
		WithArgs("google", "g-123").
		WillReturnRows(pgxmock.NewRows([]string{"id", "account_id", "provider", "provider_user_id", "email", "created_at"}).
			AddRow("si-1", "acc-1", "google", "g-123", "a@x.com", now))

	identity, err := repo.GetByProvider(context.Background(), " Google ", "g-123")
	if err != nil {
		t.Fatalf("GetByProvider returned error: %v", err)
	}
	if identity.AccountID != "acc-1" {
		t.Fatalf("unexpected account id %s", identity.AccountID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSocialIdentityRepository_CreateAccountWithIdentity(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSocialIdentityRepository(mock)
	now := time.Now().UTC()

	account := domain.Account{
		ID:         "acc-9",
		Email:      "new@x.com",
		Username:   "NewUser",
		IsActive:   true,
		AuthSource: domain.SocialSource("google"),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	identity := domain.SocialIdentity{ID: "si-9", Provider: "google", ProviderUserID: "g-9", Email: "new@x.com", CreatedAt: now}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO gkart\.accounts`).
		WithArgs("acc-9", "new@x.com", "NewUser", "", true, false, false, "social", "google", now, now, nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO gkart\.profiles`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO gkart\.social_identities`).
		WithArgs("si-9", "acc-9", "google", "g-9", "new@x.com", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := repo.CreateAccountWithIdentity(context.Background(), account, domain.Profile{UpdatedAt: now}, identity); err != nil {
		t.Fatalf("CreateAccountWithIdentity returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSocialIdentityRepository_LinkDuplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSocialIdentityRepository(mock)

	mock.ExpectExec(`INSERT INTO gkart\.social_identities`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = repo.Link(context.Background(), domain.SocialIdentity{ID: "si-1", AccountID: "acc-1", Provider: "google", ProviderUserID: "g-1"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}
