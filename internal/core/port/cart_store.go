package port

import (
	"context"
	"time"

	"github.com/Surajgupta63/GKart/internal/core/domain"
)

// CartRepository exposes cart persistence. Methods taking forUpdate lock the returned rows
// when called inside a transaction.
type CartRepository interface {
	LockAccount(ctx context.Context, accountID string) error
	ItemsForSession(ctx context.Context, sessionKey string, forUpdate bool) ([]domain.CartItem, error)
	ItemsForAccount(ctx context.Context, accountID string, forUpdate bool) ([]domain.CartItem, error)
	IncrementQuantity(ctx context.Context, itemID string, delta int, at time.Time) error
	ReassignToAccount(ctx context.Context, itemID string, accountID string, at time.Time) error
	DeleteItem(ctx context.Context, itemID string) error
	EnsureCart(ctx context.Context, sessionKey string, at time.Time) (*domain.Cart, error)
	InsertItem(ctx context.Context, item domain.CartItem) error
}

// CartStore runs cart work atomically.
type CartStore interface {
	CartRepository
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo CartRepository) error) error
}
