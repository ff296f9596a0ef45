package notifications

import (
	"context"
	"fmt"
	"time"

	"venuely/internal/shared/txguard"
	"venuely/pkg/logger"

	"github.com/IBM/sarama"
)

// Publisher hands a notification to its delivery path
type Publisher interface {
	Publish(ctx context.Context, n *Notification) error
	Close() error
}

// StorePublisher writes notifications straight to the database. Used when Kafka is disabled.
// Each write is bounded by the guard's store timeout since it runs on the request path.
type StorePublisher struct {
	repo  Repository
	guard *txguard.Guard
}

func NewStorePublisher(repo Repository, guard *txguard.Guard) *StorePublisher {
	return &StorePublisher{repo: repo, guard: guard}
}

func (p *StorePublisher) Publish(ctx context.Context, n *Notification) error {
	return p.guard.Call(ctx, "notification_store", func(ctx context.Context) error {
		return p.repo.Create(ctx, n)
	})
}

func (p *StorePublisher) Close() error { return nil }

// KafkaProducerConfig contains configuration for the Kafka notification producer
type KafkaProducerConfig struct {
	Brokers      []string
	Topic        string
	RetryMax     int
	Timeout      time.Duration
	RequiredAcks sarama.RequiredAcks
}

func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:      []string{"localhost:9092"},
		Topic:        "venuely.notifications",
		RetryMax:     3,
		Timeout:      10 * time.Second,
		RequiredAcks: sarama.WaitForAll,
	}
}

// KafkaPublisher publishes notifications to a topic; the consumer persists them
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

func NewKafkaPublisher(config *KafkaProducerConfig) (*KafkaPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = config.Timeout
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	// recipient keyed partitioning
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, config.Topic), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		log:      logger.GetDefault(),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, n *Notification) error {
	payload, err := n.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(n.GetPartitionKey()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("notification_id"), Value: []byte(n.ID.String())},
			{Key: []byte("notification_type"), Value: []byte(n.Type)},
			{Key: []byte("producer"), Value: []byte("venuely-notifications")},
		},
		Timestamp: n.CreatedAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send notification to Kafka: %w", err)
	}

	p.log.DebugWithContext(ctx, "Notification published", map[string]interface{}{
		"topic":     p.topic,
		"partition": partition,
		"offset":    offset,
		"type":      n.Type,
	})
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}
