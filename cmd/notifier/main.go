package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Surajgupta63/GKart/internal/infra/config"
	kafkainfra "github.com/Surajgupta63/GKart/internal/infra/kafka"
	"github.com/Surajgupta63/GKart/internal/infra/logger"
	"github.com/Surajgupta63/GKart/internal/infra/telemetry"
)

// notifier drains the notifications topic and hands each message to the delivery channel.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Kafka.Enabled {
		log.Fatalf("notifier requires kafka.enabled=true")
	}

	zl, err := logger.New(cfg.App.Env, cfg.App.Name+"-notifier")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	metrics, err := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		zl.Fatal("failed to init metrics", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	consumer := kafkainfra.NewNotificationConsumer(kafkainfra.NewLoggingDispatcher(zl), metrics, zl, kafkainfra.NotificationConsumerOptions{
		RatePerSecond: cfg.Notifier.RatePerSecond,
		Burst:         cfg.Notifier.Burst,
		MaxAge:        max(cfg.Tokens.ActivationTTL, cfg.Tokens.ResetTTL),
	})

	zl.Info("starting notifier", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("group", cfg.Kafka.ConsumerGroup))
	if err := kafkainfra.RunConsumerGroup(ctx, cfg.Kafka, []string{kafkainfra.TopicNotifications}, consumer, zl); err != nil {
		zl.Error("notifier stopped", zap.Error(err))
		os.Exit(1)
	}
}
