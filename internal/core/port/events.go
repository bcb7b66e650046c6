package port

import (
	"context"

	"github.com/Surajgupta63/GKart/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error
	PublishAccountActivated(ctx context.Context, event domain.AccountActivatedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error
	PublishCartReconciled(ctx context.Context, event domain.CartReconciledEvent) error
}

// Notifier hands a message to the delivery pipeline. Failures never undo the triggering change.
type Notifier interface {
	Send(ctx context.Context, notification domain.Notification) error
}
