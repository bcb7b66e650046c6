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
	cartsTable     = "gkart.carts"
	cartItemsTable = "gkart.cart_items"
)

var cartItemColumns = []string{
	"ci.id",
	"ci.cart_id",
	"ci.account_id",
	"ci.product_id",
	"ci.variations",
	"ci.quantity",
	"ci.is_active",
	"ci.created_at",
	"ci.updated_at",
}

// CartRepository implements port.CartStore using PostgreSQL.
type CartRepository struct {
	db      pgBeginner
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewCartRepository wires a PostgreSQL-backed cart repository.
func NewCartRepository(db pgBeginner) *CartRepository {
	return &CartRepository{
		db:      db,
		exec:    db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *CartRepository) WithTx(tx pgx.Tx) *CartRepository {
	if tx == nil {
		return r
	}
	return &CartRepository{db: r.db, exec: tx, builder: r.builder}
}

// WithinTx runs fn against a transaction-bound repository and commits when fn succeeds.
func (r *CartRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo port.CartRepository) error) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, r.WithTx(tx))
	})
}

// LockAccount takes a row lock on the account, serialising cart merges for the same user.
func (r *CartRepository) LockAccount(ctx context.Context, accountID string) error {
	stmt := `
        SELECT id
          FROM gkart.accounts
         WHERE id = $1
         FOR UPDATE
    `

	var id string
	if err := r.exec.QueryRow(ctx, stmt, accountID).Scan(&id); err != nil {
		if isNoRows(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("lock account: %w", err)
	}
	return nil
}

// ItemsForSession returns the active items of the anonymous cart bound to sessionKey.
func (r *CartRepository) ItemsForSession(ctx context.Context, sessionKey string, forUpdate bool) ([]domain.CartItem, error) {
	query := r.builder.
		Select(cartItemColumns...).
		From(cartItemsTable+" ci").
		Join(cartsTable+" c ON c.id = ci.cart_id").
		Where(squirrel.Eq{"c.session_key": sessionKey, "ci.is_active": true}).
		OrderBy("ci.created_at", "ci.id")
	if forUpdate {
		query = query.Suffix("FOR UPDATE OF ci")
	}
	return r.queryItems(ctx, query)
}

// ItemsForAccount returns the active items owned by an account.
func (r *CartRepository) ItemsForAccount(ctx context.Context, accountID string, forUpdate bool) ([]domain.CartItem, error) {
	query := r.builder.
		Select(cartItemColumns...).
		From(cartItemsTable+" ci").
		Where(squirrel.Eq{"ci.account_id": accountID, "ci.is_active": true}).
		OrderBy("ci.created_at", "ci.id")
	if forUpdate {
		query = query.Suffix("FOR UPDATE")
	}
	return r.queryItems(ctx, query)
}

func (r *CartRepository) queryItems(ctx context.Context, query squirrel.SelectBuilder) ([]domain.CartItem, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select cart items sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var (
			item      domain.CartItem
			cartID    sql.NullString
			accountID sql.NullString
		)
		if err := rows.Scan(
			&item.ID,
			&cartID,
			&accountID,
			&item.ProductID,
			&item.Variations,
			&item.Quantity,
			&item.IsActive,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		item.CartID = nullableStringPtr(cartID)
		item.AccountID = nullableStringPtr(accountID)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return items, nil
}

// IncrementQuantity adds delta in a single statement so concurrent increments never lose an update.
func (r *CartRepository) IncrementQuantity(ctx context.Context, itemID string, delta int, at time.Time) error {
	stmt, args, err := r.builder.Update(cartItemsTable).
		Set("quantity", squirrel.Expr("quantity + ?", delta)).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build increment cart item sql: %w", err)
	}
	return r.execOne(ctx, "increment cart item", stmt, args)
}

// ReassignToAccount moves an anonymous item to the account, keeping its row and metadata.
func (r *CartRepository) ReassignToAccount(ctx context.Context, itemID string, accountID string, at time.Time) error {
	stmt, args, err := r.builder.Update(cartItemsTable).
		Set("account_id", accountID).
		Set("cart_id", nil).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reassign cart item sql: %w", err)
	}
	return r.execOne(ctx, "reassign cart item", stmt, args)
}

// DeleteItem removes a line item.
func (r *CartRepository) DeleteItem(ctx context.Context, itemID string) error {
	stmt, args, err := r.builder.Delete(cartItemsTable).
		Where(squirrel.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete cart item sql: %w", err)
	}
	return r.execOne(ctx, "delete cart item", stmt, args)
}

func (r *CartRepository) execOne(ctx context.Context, op string, stmt string, args []any) error {
	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return mapWriteError(op, err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureCart returns the anonymous cart for sessionKey, creating it on first use.
func (r *CartRepository) EnsureCart(ctx context.Context, sessionKey string, at time.Time) (*domain.Cart, error) {
	stmt, args, err := r.builder.Insert(cartsTable).
		Columns("id", "session_key", "created_at").
		Values(newID(), sessionKey, at).
		Suffix("ON CONFLICT (session_key) DO UPDATE SET session_key = EXCLUDED.session_key RETURNING id, session_key, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert cart sql: %w", err)
	}

	var cart domain.Cart
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&cart.ID, &cart.SessionKey, &cart.CreatedAt); err != nil {
		return nil, fmt.Errorf("upsert cart: %w", err)
	}
	return &cart, nil
}

// InsertItem stores a new line item.
func (r *CartRepository) InsertItem(ctx context.Context, item domain.CartItem) error {
	var cartID, accountID any
	if item.CartID != nil {
		cartID = *item.CartID
	}
	if item.AccountID != nil {
		accountID = *item.AccountID
	}
	variations := domain.NormalizeVariations(item.Variations)

	stmt, args, err := r.builder.Insert(cartItemsTable).
		Columns(
			"id",
			"cart_id",
			"account_id",
			"product_id",
			"variations",
			"variation_key",
			"quantity",
			"is_active",
			"created_at",
			"updated_at",
		).
		Values(
			item.ID,
			cartID,
			accountID,
			item.ProductID,
			variations,
			domain.VariationKey(item.ProductID, variations),
			item.Quantity,
			item.IsActive,
			item.CreatedAt,
			item.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert cart item sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return mapWriteError("insert cart item", err)
	}
	return nil
}

var _ port.CartStore = (*CartRepository)(nil)
