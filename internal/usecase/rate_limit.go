package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Surajgupta63/GKart/internal/core/port"
)

// slidingWindow enforces a per-identifier budget on top of port.RateLimitStore.
type slidingWindow struct {
	store  port.RateLimitStore
	name   string
	limit  int
	window time.Duration
}

// allow records an attempt when the budget permits it. A nil store or a
// non-positive limit disables the check.
func (w slidingWindow) allow(ctx context.Context, identifier string, at time.Time) error {
	if w.store == nil || w.limit <= 0 || w.window <= 0 || identifier == "" {
		return nil
	}

	key := w.name + ":" + identifier
	if err := w.store.TrimWindow(ctx, key, w.window, at); err != nil {
		return fmt.Errorf("trim rate window: %w", err)
	}
	count, err := w.store.CountAttempts(ctx, key, w.window, at)
	if err != nil {
		return fmt.Errorf("count attempts: %w", err)
	}
	if count >= w.limit {
		return ErrRateLimited
	}
	if err := w.store.RecordAttempt(ctx, key, at); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}
