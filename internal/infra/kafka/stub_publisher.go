package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/core/port"
	"github.com/Surajgupta63/GKart/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Used when kafka is disabled.
type StubPublisher struct {
	logger *zap.Logger
}

func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, accountID string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	base := []zap.Field{
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
	}
	p.logger.Info("stub event published", append(base, fields...)...)
}

func (p *StubPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	p.logEvent(EventAccountRegistered, event.AccountID, event.RegisteredAt,
		zap.String("email", logger.MaskEmail(event.Email)),
		zap.String("auth_source", string(event.AuthSource.Kind)),
		zap.Bool("reissued", event.Reissued),
	)
	return nil
}

func (p *StubPublisher) PublishAccountActivated(_ context.Context, event domain.AccountActivatedEvent) error {
	p.logEvent(EventAccountActivated, event.AccountID, event.ActivatedAt, zap.String("via", event.Via))
	return nil
}

func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.logEvent(EventPasswordChanged, event.AccountID, event.ChangedAt,
		zap.String("changed_by", event.ChangedBy),
		zap.Int("sessions_revoked", event.SessionsRevoked),
	)
	return nil
}

func (p *StubPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	p.logEvent(EventPasswordResetRequested, event.AccountID, event.RequestedAt,
		zap.String("masked_destination", event.MaskedDestination),
		zap.Time("expires_at", event.ExpiresAt),
	)
	return nil
}

func (p *StubPublisher) PublishCartReconciled(_ context.Context, event domain.CartReconciledEvent) error {
	p.logEvent(EventCartReconciled, event.AccountID, event.ReconciledAt,
		zap.Int("merged", event.Merged),
		zap.Int("reassigned", event.Reassigned),
	)
	return nil
}

// StubNotifier delivers notifications straight to a dispatcher, skipping the topic.
type StubNotifier struct {
	dispatcher NotificationDispatcher
}

func NewStubNotifier(dispatcher NotificationDispatcher) *StubNotifier {
	return &StubNotifier{dispatcher: dispatcher}
}

func (n *StubNotifier) Send(ctx context.Context, notification domain.Notification) error {
	return n.dispatcher.Dispatch(ctx, notification)
}

var (
	_ port.EventPublisher = (*StubPublisher)(nil)
	_ port.Notifier       = (*StubNotifier)(nil)
)
