package postgres

import (
	"context"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/core/port"
	"github.com/Surajgupta63/GKart/internal/repository"
)

const socialIdentitiesTable = "gkart.social_identities"

var socialIdentityColumns = []string{"id", "account_id", "provider", "provider_user_id", "email", "created_at"}

// SocialIdentityRepository implements port.SocialIdentityRepository using PostgreSQL.
type SocialIdentityRepository struct {
	db       pgBeginner
	exec     pgExecutor
	accounts *AccountRepository
	builder  squirrel.StatementBuilderType
}

// NewSocialIdentityRepository wires the repository; account creation reuses AccountRepository inside the same transaction.
func NewSocialIdentityRepository(db pgBeginner) *SocialIdentityRepository {
	return &SocialIdentityRepository{
		db:       db,
		exec:     db,
		accounts: NewAccountRepository(db),
		builder:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *SocialIdentityRepository) WithTx(tx pgx.Tx) *SocialIdentityRepository {
	if tx == nil {
		return r
	}
	return &SocialIdentityRepository{
		db:       r.db,
		exec:     tx,
		accounts: r.accounts.WithTx(tx),
		builder:  r.builder,
	}
}

// GetByProvider finds the link for a provider identity.
func (r *SocialIdentityRepository) GetByProvider(ctx context.Context, provider, providerUserID string) (*domain.SocialIdentity, error) {
	stmt, args, err := r.builder.
		Select(socialIdentityColumns...).
		From(socialIdentitiesTable).
		Where(squirrel.Eq{
			"provider":         strings.ToLower(strings.TrimSpace(provider)),
			"provider_user_id": providerUserID,
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select social identity sql: %w", err)
	}

	var identity domain.SocialIdentity
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&identity.ID,
		&identity.AccountID,
		&identity.Provider,
		&identity.ProviderUserID,
		&identity.Email,
		&identity.CreatedAt,
	); err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan social identity: %w", err)
	}
	return &identity, nil
}

// ListByAccount returns every provider linked to an account.
func (r *SocialIdentityRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.SocialIdentity, error) {
	stmt, args, err := r.builder.
		Select(socialIdentityColumns...).
		From(socialIdentitiesTable).
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list social identities sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query social identities: %w", err)
	}
	defer rows.Close()

	var identities []domain.SocialIdentity
	for rows.Next() {
		var identity domain.SocialIdentity
		if err := rows.Scan(
			&identity.ID,
			&identity.AccountID,
			&identity.Provider,
			&identity.ProviderUserID,
			&identity.Email,
			&identity.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan social identity: %w", err)
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate social identities: %w", err)
	}
	return identities, nil
}

// Link stores a new identity link. A second link for the same provider identity returns repository.ErrDuplicate.
func (r *SocialIdentityRepository) Link(ctx context.Context, identity domain.SocialIdentity) error {
	stmt, args, err := r.builder.Insert(socialIdentitiesTable).
		Columns(socialIdentityColumns...).
		Values(
			identity.ID,
			identity.AccountID,
			strings.ToLower(strings.TrimSpace(identity.Provider)),
			identity.ProviderUserID,
			domain.NormalizeEmail(identity.Email),
			identity.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert social identity sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return mapWriteError("insert social identity", err)
	}
	return nil
}

// CreateAccountWithIdentity inserts an account, its profile and the provider link atomically.
func (r *SocialIdentityRepository) CreateAccountWithIdentity(ctx context.Context, account domain.Account, profile domain.Profile, identity domain.SocialIdentity) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		scoped := r.WithTx(tx)
		if err := scoped.accounts.CreateWithProfile(ctx, account, profile); err != nil {
			return err
		}
		identity.AccountID = account.ID
		return scoped.Link(ctx, identity)
	})
}

var _ port.SocialIdentityRepository = (*SocialIdentityRepository)(nil)
