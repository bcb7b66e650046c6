package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/core/port"
	"github.com/Surajgupta63/GKart/internal/repository"
)

const (
	accountsTable = "gkart.accounts"
	profilesTable = "gkart.profiles"
)

var accountColumns = []string{
	"id",
	"email",
	"username",
	"password_hash",
	"is_active",
	"is_staff",
	"is_superuser",
	"auth_source",
	"auth_provider",
	"created_at",
	"updated_at",
	"last_login_at",
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db      pgBeginner
	exec    pgExecutor
	inTx    bool
	builder squirrel.StatementBuilderType
}

// NewAccountRepository wires a PostgreSQL-backed account repository.
func NewAccountRepository(db pgBeginner) *AccountRepository {
	return &AccountRepository{
		db:      db,
		exec:    db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	if tx == nil {
		return r
	}
	return &AccountRepository{db: r.db, exec: tx, inTx: true, builder: r.builder}
}

// CreateWithProfile inserts the account and its profile in one transaction.
func (r *AccountRepository) CreateWithProfile(ctx context.Context, account domain.Account, profile domain.Profile) error {
	if r.inTx {
		return r.createWithProfile(ctx, account, profile)
	}
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		return r.WithTx(tx).createWithProfile(ctx, account, profile)
	})
}

func (r *AccountRepository) createWithProfile(ctx context.Context, account domain.Account, profile domain.Profile) error {
	if err := r.insertAccount(ctx, account); err != nil {
		return err
	}
	profile.AccountID = account.ID
	return r.insertProfile(ctx, profile)
}

func (r *AccountRepository) insertAccount(ctx context.Context, account domain.Account) error {
	stmt, args, err := r.builder.Insert(accountsTable).
		Columns(accountColumns...).
		Values(
			account.ID,
			domain.NormalizeEmail(account.Email),
			account.Username,
			account.PasswordHash,
			account.IsActive,
			account.IsStaff,
			account.IsSuperuser,
			string(account.AuthSource.Kind),
			optionalString(account.AuthSource.Provider),
			account.CreatedAt,
			account.UpdatedAt,
			optionalTime(account.LastLoginAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return mapWriteError("insert account", err)
	}
	return nil
}

func (r *AccountRepository) insertProfile(ctx context.Context, profile domain.Profile) error {
	picture := profile.ProfilePicture
	if picture == "" {
		picture = domain.DefaultProfilePicture
	}

	stmt, args, err := r.builder.Insert(profilesTable).
		Columns(
			"account_id",
			"first_name",
			"last_name",
			"mobile_number",
			"address_line_1",
			"address_line_2",
			"city",
			"state",
			"country",
			"profile_picture",
			"updated_at",
		).
		Values(
			profile.AccountID,
			profile.FirstName,
			profile.LastName,
			profile.MobileNumber,
			profile.AddressLine1,
			profile.AddressLine2,
			profile.City,
			profile.State,
			profile.Country,
			picture,
			profile.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert profile sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return mapWriteError("insert profile", err)
	}
	return nil
}

// GetByID retrieves an account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves an account by normalized email. The predicate matches the
// lower(email) unique index.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getOne(ctx, squirrel.Expr("lower(email) = ?", domain.NormalizeEmail(email)))
}

func (r *AccountRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From(accountsTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return account, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		source    string
		provider  sql.NullString
		lastLogin sql.NullTime
	)

	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Username,
		&account.PasswordHash,
		&account.IsActive,
		&account.IsStaff,
		&account.IsSuperuser,
		&source,
		&provider,
		&account.CreatedAt,
		&account.UpdatedAt,
		&lastLogin,
	); err != nil {
		return nil, err
	}

	account.AuthSource = domain.AuthSource{Kind: domain.AuthSourceKind(source), Provider: provider.String}
	account.LastLoginAt = nullableTimePtr(lastLogin)
	return &account, nil
}

// Activate flips is_active only when the account is still pending.
func (r *AccountRepository) Activate(ctx context.Context, id string, at time.Time) (bool, error) {
	stmt, args, err := r.builder.Update(accountsTable).
		Set("is_active", true).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "is_active": false}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build activate account sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("activate account: %w", err)
	}
	if ct.RowsAffected() > 0 {
		return true, nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// UpdatePassword replaces the credential hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error {
	return r.update(ctx, "update password", id, map[string]any{
		"password_hash": passwordHash,
		"updated_at":    changedAt,
	})
}

// UpdateLastLogin stamps the last successful login.
func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, "update last login", id, map[string]any{
		"last_login_at": at,
	})
}

func (r *AccountRepository) update(ctx context.Context, op string, id string, fields map[string]any) error {
	stmt, args, err := r.builder.Update(accountsTable).
		SetMap(fields).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s sql: %w", op, err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ port.AccountRepository = (*AccountRepository)(nil)
