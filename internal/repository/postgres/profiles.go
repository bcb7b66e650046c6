package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/core/port"
	"github.com/Surajgupta63/GKart/internal/repository"
)

// ProfileRepository implements port.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewProfileRepository constructs the repository from a generic executor.
func NewProfileRepository(exec pgExecutor) *ProfileRepository {
	return &ProfileRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByAccountID loads the profile owned by an account.
func (r *ProfileRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.Profile, error) {
	stmt, args, err := r.builder.
		Select(
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
		From(profilesTable).
		Where(squirrel.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select profile sql: %w", err)
	}

	var p domain.Profile
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&p.AccountID,
		&p.FirstName,
		&p.LastName,
		&p.MobileNumber,
		&p.AddressLine1,
		&p.AddressLine2,
		&p.City,
		&p.State,
		&p.Country,
		&p.ProfilePicture,
		&p.UpdatedAt,
	); err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}

var _ port.ProfileRepository = (*ProfileRepository)(nil)
