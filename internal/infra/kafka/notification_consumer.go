package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/infra/logger"
)

// NotificationDispatcher delivers a decoded notification to its final channel.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, n domain.Notification) error
}

// NotificationMetrics observes delivery outcomes.
type NotificationMetrics interface {
	IncNotification(template, outcome string)
}

// NotificationConsumerOptions controls throttling and staleness handling.
type NotificationConsumerOptions struct {
	RatePerSecond float64
	Burst         int
	// MaxAge drops notifications whose link would already be useless.
	MaxAge time.Duration
}

// NotificationConsumer drains the notifications topic at a bounded rate.
type NotificationConsumer struct {
	dispatcher NotificationDispatcher
	limiter    *rate.Limiter
	metrics    NotificationMetrics
	maxAge     time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

func NewNotificationConsumer(dispatcher NotificationDispatcher, metrics NotificationMetrics, logger *zap.Logger, opts NotificationConsumerOptions) *NotificationConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &NotificationConsumer{
		dispatcher: dispatcher,
		limiter:    rate.NewLimiter(limit, burst),
		metrics:    metrics,
		maxAge:     opts.MaxAge,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the consumer clock for deterministic testing.
func (c *NotificationConsumer) WithClock(clock func() time.Time) *NotificationConsumer {
	if clock != nil {
		c.now = clock
	}
	return c
}

// HandleMessage decodes a Kafka message prior to processing.
func (c *NotificationConsumer) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	if msg == nil {
		return fmt.Errorf("message is nil")
	}

	var wire notificationMessage
	if err := json.Unmarshal(msg.Value, &wire); err != nil {
		return fmt.Errorf("decode notification: %w", err)
	}

	return c.HandleNotification(ctx, wire.toDomain())
}

// HandleNotification throttles and dispatches one notification.
func (c *NotificationConsumer) HandleNotification(ctx context.Context, n domain.Notification) error {
	if c.maxAge > 0 && !n.QueuedAt.IsZero() {
		if age := c.now().Sub(n.QueuedAt); age > c.maxAge {
			c.logger.Warn("dropping stale notification",
				zap.String("notification_id", n.ID),
				zap.String("template", n.Template),
				zap.Duration("age", age),
			)
			c.observe(n.Template, "stale")
			return nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for delivery slot: %w", err)
	}

	if err := c.dispatcher.Dispatch(ctx, n); err != nil {
		c.observe(n.Template, "failed")
		return fmt.Errorf("dispatch notification %s: %w", n.ID, err)
	}

	c.observe(n.Template, "sent")
	return nil
}

func (c *NotificationConsumer) observe(template, outcome string) {
	if c.metrics != nil {
		c.metrics.IncNotification(template, outcome)
	}
}

// Setup implements sarama.ConsumerGroupHandler.
func (c *NotificationConsumer) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup implements sarama.ConsumerGroupHandler.
func (c *NotificationConsumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim implements sarama.ConsumerGroupHandler. Failed deliveries are logged and committed.
func (c *NotificationConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := c.HandleMessage(session.Context(), msg); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				c.logger.Error("notification delivery failed",
					zap.Error(err),
					zap.String("topic", msg.Topic),
					zap.Int32("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
				)
			}
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// LoggingDispatcher renders notifications into the log. It stands in for a mail relay.
type LoggingDispatcher struct {
	logger *zap.Logger
}

func NewLoggingDispatcher(log *zap.Logger) *LoggingDispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingDispatcher{logger: log}
}

// Dispatch implements NotificationDispatcher.
func (d *LoggingDispatcher) Dispatch(_ context.Context, n domain.Notification) error {
	subject, ok := notificationSubjects[n.Template]
	if !ok {
		return fmt.Errorf("unknown notification template %q", n.Template)
	}
	d.logger.Info("notification delivered",
		zap.String("notification_id", n.ID),
		zap.String("to", logger.MaskEmail(n.To)),
		zap.String("subject", subject),
		zap.String("template", n.Template),
	)
	return nil
}

var notificationSubjects = map[string]string{
	domain.TemplateAccountActivation: "Please activate your account",
	domain.TemplatePasswordReset:     "Reset your password",
}

var _ sarama.ConsumerGroupHandler = (*NotificationConsumer)(nil)
