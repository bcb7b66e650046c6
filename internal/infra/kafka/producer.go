package kafka

import (
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Surajgupta63/GKart/internal/infra/config"
)

const kafkaVersion = "3.5.0"

// Producer wraps Sarama AsyncProducer with error handling and lifecycle management.
type Producer struct {
	producer sarama.AsyncProducer
	logger   *zap.Logger
	cfg      config.KafkaSettings
	errChan  chan error
	done     chan struct{}
}

// NewSaramaConfig returns the client settings shared by the producer and the consumer group.
func NewSaramaConfig() *sarama.Config {
	saramaConfig := sarama.NewConfig()
	if version, err := sarama.ParseKafkaVersion(kafkaVersion); err == nil {
		saramaConfig.Version = version
	}

	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Flush.Frequency = 100 * time.Millisecond
	saramaConfig.Producer.Flush.Messages = 100
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = false
	saramaConfig.Producer.Return.Errors = true
	// Keys are account ids or recipients so one account's messages stay ordered.
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Return.Errors = true

	saramaConfig.Metadata.Retry.Max = 3
	saramaConfig.Metadata.Retry.Backoff = 250 * time.Millisecond

	return saramaConfig
}

// NewProducer initializes the Kafka async producer and starts draining its error channel.
func NewProducer(cfg config.KafkaSettings, logger *zap.Logger) (*Producer, error) {
	producer, err := sarama.NewAsyncProducer(cfg.Brokers, NewSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	p := newProducer(producer, cfg, logger)

	logger.Info("kafka producer initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic_prefix", cfg.TopicPrefix),
	)

	return p, nil
}

func newProducer(producer sarama.AsyncProducer, cfg config.KafkaSettings, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Producer{
		producer: producer,
		logger:   logger,
		cfg:      cfg,
		errChan:  make(chan error, 256),
		done:     make(chan struct{}),
	}
	go p.handleErrors()
	return p
}

func (p *Producer) handleErrors() {
	for {
		select {
		case err, ok := <-p.producer.Errors():
			if !ok {
				return
			}
			if err == nil {
				continue
			}
			p.logger.Error("kafka producer error",
				zap.Error(err.Err),
				zap.String("topic", err.Msg.Topic),
				zap.Int32("partition", err.Msg.Partition),
			)
			select {
			case p.errChan <- err.Err:
			default:
				p.logger.Warn("error channel full, dropping error")
			}
		case <-p.done:
			return
		}
	}
}

// Errors returns the error channel for external monitoring.
func (p *Producer) Errors() <-chan error {
	return p.errChan
}

// Close flushes pending messages and stops the error drain.
func (p *Producer) Close() error {
	p.logger.Info("closing kafka producer")
	close(p.done)

	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}

	return nil
}

// TopicName returns the full topic name with prefix.
func (p *Producer) TopicName(eventType string) string {
	return topicName(p.cfg.TopicPrefix, eventType)
}

func topicName(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}

	full := prefix + "."
	if strings.HasPrefix(eventType, full) {
		return eventType
	}

	return full + eventType
}
