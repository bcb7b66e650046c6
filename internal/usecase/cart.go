package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/core/port"
	"github.com/Surajgupta63/GKart/internal/repository"
)

const tracerName = "github.com/Surajgupta63/GKart/internal/usecase"

// ReconcileOutcome reports what a reconciliation did. Err is set when it was rolled back.
type ReconcileOutcome struct {
	Merged     int
	Reassigned int
	Err        error
}

// Failed reports whether the reconciliation was rolled back.
func (o ReconcileOutcome) Failed() bool {
	return o.Err != nil
}

// Reconciler folds a guest cart into an account cart.
type Reconciler interface {
	Reconcile(ctx context.Context, sessionKey, accountID string) (ReconcileOutcome, error)
}

// CartReconciler merges the anonymous session cart into the account cart at login.
type CartReconciler struct {
	store   port.CartStore
	events  port.EventPublisher
	metrics IdentityMetrics
	logger  *zap.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

func NewCartReconciler(store port.CartStore, events port.EventPublisher, metrics IdentityMetrics, logger *zap.Logger) *CartReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartReconciler{
		store:   store,
		events:  events,
		metrics: metricsOrNoop(metrics),
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock for deterministic testing.
func (r *CartReconciler) WithClock(now func() time.Time) *CartReconciler {
	if now != nil {
		r.now = now
	}
	return r
}

// Reconcile runs the whole merge in one transaction. The account row lock serialises
// concurrent logins of the same account; the anonymous cart row itself is left behind.
func (r *CartReconciler) Reconcile(ctx context.Context, sessionKey, accountID string) (ReconcileOutcome, error) {
	ctx, span := r.tracer.Start(ctx, "cart.reconcile", trace.WithAttributes(
		attribute.String("account.id", accountID),
	))
	defer span.End()

	if sessionKey == "" || accountID == "" {
		return ReconcileOutcome{}, nil
	}

	at := r.now()
	var merged, reassigned int

	err := r.store.WithinTx(ctx, func(ctx context.Context, repo port.CartRepository) error {
		merged, reassigned = 0, 0

		if err := repo.LockAccount(ctx, accountID); err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		guest, err := repo.ItemsForSession(ctx, sessionKey, true)
		if err != nil {
			return fmt.Errorf("load session items: %w", err)
		}
		if len(guest) == 0 {
			return nil
		}

		owned, err := repo.ItemsForAccount(ctx, accountID, true)
		if err != nil {
			return fmt.Errorf("load account items: %w", err)
		}

		byKey := make(map[string]string, len(owned))
		for _, item := range owned {
			byKey[item.Key()] = item.ID
		}

		for _, item := range guest {
			key := item.Key()
			if existingID, ok := byKey[key]; ok {
				if err := repo.IncrementQuantity(ctx, existingID, item.Quantity, at); err != nil {
					return fmt.Errorf("merge item %s: %w", item.ID, err)
				}
				if err := repo.DeleteItem(ctx, item.ID); err != nil {
					return fmt.Errorf("delete merged item %s: %w", item.ID, err)
				}
				merged++
				continue
			}

			if err := repo.ReassignToAccount(ctx, item.ID, accountID, at); err != nil {
				return fmt.Errorf("reassign item %s: %w", item.ID, err)
			}
			byKey[key] = item.ID
			reassigned++
		}

		return nil
	})
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", ErrReconciliationFailure, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconciliation rolled back")
		r.metrics.IncReconciliationFailure()
		return ReconcileOutcome{Err: wrapped}, wrapped
	}

	span.SetAttributes(
		attribute.Int("cart.merged", merged),
		attribute.Int("cart.reassigned", reassigned),
	)
	r.metrics.ObserveReconciliation(merged, reassigned)

	if merged+reassigned > 0 && r.events != nil {
		event := domain.CartReconciledEvent{
			EventID:      uuid.NewString(),
			AccountID:    accountID,
			SessionKey:   sessionKey,
			Merged:       merged,
			Reassigned:   reassigned,
			ReconciledAt: at,
		}
		if err := r.events.PublishCartReconciled(ctx, event); err != nil {
			r.logger.Warn("publish cart reconciled event failed", zap.String("account_id", accountID), zap.Error(err))
		}
	}

	return ReconcileOutcome{Merged: merged, Reassigned: reassigned}, nil
}

// CartService backs the cart endpoints.
type CartService struct {
	store  port.CartStore
	logger *zap.Logger
	now    func() time.Time
}

func NewCartService(store port.CartStore, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock for deterministic testing.
func (s *CartService) WithClock(now func() time.Time) *CartService {
	if now != nil {
		s.now = now
	}
	return s
}

// AddItem adds quantity to the owner's line with the same variation key, or creates the line.
// Anonymous owners get their cart row on first use.
func (s *CartService) AddItem(ctx context.Context, owner domain.CartOwner, in AddItemInput) (domain.CartItem, error) {
	if err := asValidationError(in.Validate()); err != nil {
		return domain.CartItem{}, err
	}
	if !owner.IsAccount() && owner.SessionKey == "" {
		return domain.CartItem{}, fmt.Errorf("%w: cart session is required", ErrInvalidInput)
	}

	at := s.now()
	variations := domain.NormalizeVariations(in.Variations)
	key := domain.VariationKey(in.ProductID, variations)

	var result domain.CartItem
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo port.CartRepository) error {
		var (
			items []domain.CartItem
			err   error
		)
		if owner.IsAccount() {
			if err := repo.LockAccount(ctx, owner.AccountID); err != nil {
				return fmt.Errorf("lock account: %w", err)
			}
			items, err = repo.ItemsForAccount(ctx, owner.AccountID, true)
		} else {
			items, err = repo.ItemsForSession(ctx, owner.SessionKey, true)
		}
		if err != nil {
			return fmt.Errorf("load cart items: %w", err)
		}

		for _, item := range items {
			if item.Key() != key {
				continue
			}
			if err := repo.IncrementQuantity(ctx, item.ID, in.Quantity, at); err != nil {
				return fmt.Errorf("increment item: %w", err)
			}
			item.Quantity += in.Quantity
			item.UpdatedAt = at
			result = item
			return nil
		}

		item := domain.CartItem{
			ID:         uuid.NewString(),
			ProductID:  in.ProductID,
			Variations: variations,
			Quantity:   in.Quantity,
			IsActive:   true,
			CreatedAt:  at,
			UpdatedAt:  at,
		}
		if owner.IsAccount() {
			accountID := owner.AccountID
			item.AccountID = &accountID
		} else {
			cart, err := repo.EnsureCart(ctx, owner.SessionKey, at)
			if err != nil {
				return fmt.Errorf("ensure cart: %w", err)
			}
			cartID := cart.ID
			item.CartID = &cartID
		}

		if err := repo.InsertItem(ctx, item); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		result = item
		return nil
	})
	if err != nil {
		return domain.CartItem{}, err
	}

	return result, nil
}

// Items lists the owner's active lines.
func (s *CartService) Items(ctx context.Context, owner domain.CartOwner) ([]domain.CartItem, error) {
	if owner.IsAccount() {
		return s.store.ItemsForAccount(ctx, owner.AccountID, false)
	}
	if owner.SessionKey == "" {
		return []domain.CartItem{}, nil
	}
	return s.store.ItemsForSession(ctx, owner.SessionKey, false)
}

// RemoveItem deletes a line, refusing lines that belong to another owner.
func (s *CartService) RemoveItem(ctx context.Context, owner domain.CartOwner, itemID string) error {
	items, err := s.Items(ctx, owner)
	if err != nil {
		return fmt.Errorf("load cart items: %w", err)
	}

	for _, item := range items {
		if item.ID != itemID {
			continue
		}
		if err := s.store.DeleteItem(ctx, itemID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCartItemNotFound
			}
			return fmt.Errorf("delete item: %w", err)
		}
		return nil
	}

	return ErrCartItemNotFound
}

var _ Reconciler = (*CartReconciler)(nil)
