package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/core/port"
)

// notificationMessage is the wire format on the notifications topic.
type notificationMessage struct {
	ID       string            `json:"id"`
	To       string            `json:"to"`
	Template string            `json:"template"`
	Context  map[string]string `json:"context,omitempty"`
	QueuedAt time.Time         `json:"queued_at"`
}

func (m notificationMessage) toDomain() domain.Notification {
	return domain.Notification{
		ID:       m.ID,
		To:       m.To,
		Template: m.Template,
		Context:  m.Context,
		QueuedAt: m.QueuedAt,
	}
}

// NotificationPublisher queues notifications for the notifier worker.
type NotificationPublisher struct {
	producer *Producer
	now      func() time.Time
}

func NewNotificationPublisher(producer *Producer) *NotificationPublisher {
	return &NotificationPublisher{producer: producer, now: func() time.Time { return time.Now().UTC() }}
}

// Send implements port.Notifier. Messages for one recipient share a partition.
func (p *NotificationPublisher) Send(ctx context.Context, n domain.Notification) error {
	if n.To == "" || n.Template == "" {
		return fmt.Errorf("notification requires recipient and template")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.QueuedAt.IsZero() {
		n.QueuedAt = p.now()
	}

	body, err := json.Marshal(notificationMessage{
		ID:       n.ID,
		To:       n.To,
		Template: n.Template,
		Context:  n.Context,
		QueuedAt: n.QueuedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	return enqueue(ctx, p.producer, &sarama.ProducerMessage{
		Topic: p.producer.TopicName(TopicNotifications),
		Key:   sarama.StringEncoder(n.To),
		Value: sarama.ByteEncoder(body),
	})
}

var _ port.Notifier = (*NotificationPublisher)(nil)
