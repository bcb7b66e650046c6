package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/core/port"
	"github.com/Surajgupta63/GKart/internal/infra/config"
)

const schemaVersion = "1.0"

// Event types, prefixed with the configured topic prefix on the wire.
const (
	EventAccountRegistered      = "account.registered"
	EventAccountActivated       = "account.activated"
	EventPasswordChanged        = "password.changed"
	EventPasswordResetRequested = "password.reset_requested"
	EventCartReconciled         = "cart.reconciled"
	TopicNotifications          = "notifications"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	AccountID string           `json:"account_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, accountID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		AccountID: accountID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}
	if accountID != "" {
		message.Key = sarama.StringEncoder(accountID)
	}

	return enqueue(ctx, p.producer, message)
}

func enqueue(ctx context.Context, producer *Producer, message *sarama.ProducerMessage) error {
	select {
	case producer.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAccountRegistered publishes account.registered events.
func (p *EventPublisher) PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error {
	payload := struct {
		AccountID    string         `json:"account_id"`
		Username     string         `json:"username"`
		AuthSource   string         `json:"auth_source"`
		Provider     string         `json:"provider,omitempty"`
		RegisteredAt time.Time      `json:"registered_at"`
		Reissued     bool           `json:"reissued"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:    event.AccountID,
		Username:     event.Username,
		AuthSource:   string(event.AuthSource.Kind),
		Provider:     event.AuthSource.Provider,
		RegisteredAt: event.RegisteredAt.UTC(),
		Reissued:     event.Reissued,
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, EventAccountRegistered, event.AccountID, event.RegisteredAt, payload)
}

// PublishAccountActivated publishes account.activated events.
func (p *EventPublisher) PublishAccountActivated(ctx context.Context, event domain.AccountActivatedEvent) error {
	payload := struct {
		AccountID   string         `json:"account_id"`
		ActivatedAt time.Time      `json:"activated_at"`
		Via         string         `json:"via"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:   event.AccountID,
		ActivatedAt: event.ActivatedAt.UTC(),
		Via:         event.Via,
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, EventAccountActivated, event.AccountID, event.ActivatedAt, payload)
}

// PublishPasswordChanged publishes password.changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		AccountID       string         `json:"account_id"`
		ChangedAt       time.Time      `json:"changed_at"`
		ChangedBy       string         `json:"changed_by"`
		SessionsRevoked int            `json:"sessions_revoked"`
		Metadata        map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:       event.AccountID,
		ChangedAt:       event.ChangedAt.UTC(),
		ChangedBy:       event.ChangedBy,
		SessionsRevoked: event.SessionsRevoked,
		Metadata:        event.Metadata,
	}

	return p.publish(ctx, event.EventID, EventPasswordChanged, event.AccountID, event.ChangedAt, payload)
}

// PublishPasswordResetRequested publishes password.reset_requested events.
func (p *EventPublisher) PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error {
	payload := struct {
		AccountID         string         `json:"account_id"`
		RequestedAt       time.Time      `json:"requested_at"`
		MaskedDestination string         `json:"masked_destination,omitempty"`
		IPAddress         string         `json:"ip_address,omitempty"`
		ExpiresAt         time.Time      `json:"expires_at"`
		Metadata          map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:         event.AccountID,
		RequestedAt:       event.RequestedAt.UTC(),
		MaskedDestination: event.MaskedDestination,
		IPAddress:         event.IPAddress,
		ExpiresAt:         event.ExpiresAt.UTC(),
		Metadata:          event.Metadata,
	}

	timestamp := event.RequestedAt
	if timestamp.IsZero() {
		timestamp = event.ExpiresAt
	}

	return p.publish(ctx, event.EventID, EventPasswordResetRequested, event.AccountID, timestamp, payload)
}

// PublishCartReconciled publishes cart.reconciled events.
func (p *EventPublisher) PublishCartReconciled(ctx context.Context, event domain.CartReconciledEvent) error {
	payload := struct {
		AccountID    string         `json:"account_id"`
		Merged       int            `json:"merged"`
		Reassigned   int            `json:"reassigned"`
		ReconciledAt time.Time      `json:"reconciled_at"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:    event.AccountID,
		Merged:       event.Merged,
		Reassigned:   event.Reassigned,
		ReconciledAt: event.ReconciledAt.UTC(),
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, EventCartReconciled, event.AccountID, event.ReconciledAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
