package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/core/port"
	"github.com/Surajgupta63/GKart/internal/repository"
)

var cartItemRowColumns = []string{"id", "cart_id", "account_id", "product_id", "variations", "quantity", "is_active", "created_at", "updated_at"}

func TestCartRepository_ItemsForSessionLocksRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewCartRepository(mock)
	now := time.Now().UTC()

	rows := pgxmock.NewRows(cartItemRowColumns).
		AddRow("item-1", "cart-1", nil, "prod-x", []string{"large", "red"}, 1, true, now, now)
	mock.ExpectQuery(`SELECT .* FROM gkart\.cart_items ci JOIN gkart\.carts c ON c\.id = ci\.cart_id WHERE c\.session_key = \$1 AND ci\.is_active = \$2 ORDER BY ci\.created_at, ci\.id FOR UPDATE OF ci`).
		WithArgs("sess-1", true).
		WillReturnRows(rows)

	items, err := repo.ItemsForSession(context.Background(), "sess-1", true)
	if err != nil {
		t.Fatalf("ItemsForSession returned error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].CartID == nil || *items[0].CartID != "cart-1" || items[0].AccountID != nil {
		t.Fatalf("unexpected ownership: %+v", items[0])
	}
	if items[0].Key() != "prod-x|large,red" {
		t.Fatalf("unexpected key %s", items[0].Key())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCartRepository_IncrementQuantityIsAtomic(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewCartRepository(mock)
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE gkart\.cart_items SET quantity = quantity \+ \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs(2, now, "item-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.IncrementQuantity(context.Background(), "item-1", 2, now); err != nil {
		t.Fatalf("IncrementQuantity returned error: %v", err)
	}

	mock.ExpectExec(`UPDATE gkart\.cart_items`).
		WithArgs(1, now, "gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	if err := repo.IncrementQuantity(context.Background(), "gone", 1, now); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCartRepository_WithinTxCommitsAndRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewCartRepository(mock)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM gkart\.accounts WHERE id = \$1 FOR UPDATE`).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("acc-1"))
	mock.ExpectExec(`UPDATE gkart\.cart_items SET account_id = \$1, cart_id = \$2, updated_at = \$3 WHERE id = \$4`).
		WithArgs("acc-1", nil, now, "item-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err = repo.WithinTx(context.Background(), func(ctx context.Context, tx port.CartRepository) error {
		if err := tx.LockAccount(ctx, "acc-1"); err != nil {
			return err
		}
		return tx.ReassignToAccount(ctx, "item-1", "acc-1", now)
	})
	if err != nil {
		t.Fatalf("WithinTx returned error: %v", err)
	}

	failure := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM gkart\.cart_items WHERE id = \$1`).
		WithArgs("item-2").
		WillReturnError(failure)
	mock.ExpectRollback()

	err = repo.WithinTx(context.Background(), func(ctx context.Context, tx port.CartRepository) error {
		return tx.DeleteItem(ctx, "item-2")
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected wrapped failure, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCartRepository_EnsureCartAndInsertItem(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewCartRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO gkart\.carts .* ON CONFLICT \(session_key\) DO UPDATE`).
		WithArgs(pgxmock.AnyArg(), "sess-1", now).
		WillReturnRows(pgxmock.NewRows([]string{"id", "session_key", "created_at"}).AddRow("cart-1", "sess-1", now))

	cart, err := repo.EnsureCart(context.Background(), "sess-1", now)
	if err != nil {
		t.Fatalf("EnsureCart returned error: %v", err)
	}
	if cart.ID != "cart-1" {
		t.Fatalf("unexpected cart id %s", cart.ID)
	}

	cartID := cart.ID
	mock.ExpectExec(`INSERT INTO gkart\.cart_items`).
		WithArgs("item-1", "cart-1", nil, "prod-x", []string{"large", "red"}, "prod-x|large,red", 1, true, now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.InsertItem(context.Background(), domain.CartItem{
		ID:         "item-1",
		CartID:     &cartID,
		ProductID:  "prod-x",
		Variations: []string{"red", "large", "red"},
		Quantity:   1,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("InsertItem returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
