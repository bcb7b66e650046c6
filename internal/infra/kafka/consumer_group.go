package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Surajgupta63/GKart/internal/infra/config"
)

// RunConsumerGroup joins the configured group and consumes topics until ctx is cancelled.
func RunConsumerGroup(ctx context.Context, cfg config.KafkaSettings, topics []string, handler sarama.ConsumerGroupHandler, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, NewSaramaConfig())
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() {
		if err := group.Close(); err != nil {
			log.Warn("close consumer group", zap.Error(err))
		}
	}()

	go func() {
		for err := range group.Errors() {
			log.Error("consumer group error", zap.Error(err))
		}
	}()

	full := make([]string, 0, len(topics))
	for _, topic := range topics {
		full = append(full, topicName(cfg.TopicPrefix, topic))
	}

	log.Info("consumer group started",
		zap.String("group", cfg.ConsumerGroup),
		zap.Strings("topics", full),
	)

	for {
		if err := group.Consume(ctx, full, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return fmt.Errorf("consume: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
