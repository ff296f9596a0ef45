package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"venuely/pkg/logger"

	"github.com/IBM/sarama"
)

type ConsumerConfig struct {
	Brokers    []string
	GroupID    string
	Topics     []string
	NumWorkers int

	SessionTimeout time.Duration
	Heartbeat      time.Duration
	OffsetOldest   bool

	// MaxRetries is how many times a failed store is retried before the claim is abandoned
	MaxRetries   int
	RetryBackoff time.Duration
	StoreTimeout time.Duration
}

func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:        []string{"localhost:9092"},
		GroupID:        "venuely-notification-store",
		Topics:         []string{"venuely.notifications"},
		NumWorkers:     1,
		SessionTimeout: 30 * time.Second,
		Heartbeat:      3 * time.Second,
		OffsetOldest:   true,
		MaxRetries:     3,
		RetryBackoff:   time.Second,
		StoreTimeout:   5 * time.Second,
	}
}

// Consumer persists notifications published to Kafka
type Consumer struct {
	group  sarama.ConsumerGroup
	config *ConsumerConfig
	repo   Repository
	log    *logger.Logger
	wg     sync.WaitGroup
}

func NewConsumer(config *ConsumerConfig, repo Repository) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = config.SessionTimeout
	saramaConfig.Consumer.Group.Heartbeat.Interval = config.Heartbeat
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second
	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	group, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return newConsumer(group, config, repo), nil
}

func newConsumer(group sarama.ConsumerGroup, config *ConsumerConfig, repo Repository) *Consumer {
	return &Consumer{
		group:  group,
		config: config,
		repo:   repo,
		log:    logger.GetDefault(),
	}
}

// Start runs the workers until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) {
	workers := c.config.NumWorkers
	if workers <= 0 {
		workers = 1
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for err := range c.group.Errors() {
			c.log.Error("Consumer group error", "error", err)
		}
	}()

	for i := 0; i < workers; i++ {
		c.wg.Add(1)
		go func(workerID int) {
			defer c.wg.Done()
			c.runWorker(ctx, workerID)
		}(i)
	}

	c.log.Info("Notification consumers started", "workers", workers, "topics", c.config.Topics)
}

func (c *Consumer) runWorker(ctx context.Context, workerID int) {
	handler := &consumerGroupHandler{
		repo:         c.repo,
		log:          c.log,
		workerID:     workerID,
		maxRetries:   c.config.MaxRetries,
		backoff:      c.config.RetryBackoff,
		storeTimeout: c.config.StoreTimeout,
	}
	for {
		err := c.group.Consume(ctx, c.config.Topics, handler)
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return
		}
		if err != nil {
			c.log.Warn("Error consuming notifications", "worker", workerID, "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// Stop closes the group and waits for the workers
func (c *Consumer) Stop() error {
	err := c.group.Close()
	c.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	c.log.Info("Notification consumers stopped")
	return nil
}

type consumerGroupHandler struct {
	repo     Repository
	log      *logger.Logger
	workerID int

	maxRetries   int
	backoff      time.Duration
	storeTimeout time.Duration
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.storeWithRetry(session.Context(), message); err != nil {
				// Marking a later message would commit past this one, so give up the claim.
				// The next session resumes from the last marked offset.
				h.log.Error("Failed to store notification, releasing claim",
					"worker", h.workerID, "partition", message.Partition, "offset", message.Offset, "error", err)
				return err
			}
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *consumerGroupHandler) storeWithRetry(ctx context.Context, message *sarama.ConsumerMessage) error {
	for attempt := 0; ; attempt++ {
		err := h.handle(ctx, message)
		if err == nil {
			if attempt > 0 {
				h.log.Info("Stored notification after retries", "worker", h.workerID, "retries", attempt)
			}
			return nil
		}
		if attempt >= h.maxRetries {
			return err
		}

		// Exponential backoff
		delay := h.backoff * time.Duration(1<<attempt)
		h.log.Warn("Retrying notification store", "worker", h.workerID, "attempt", attempt+1, "delay", delay, "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *consumerGroupHandler) handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	var n Notification
	if err := json.Unmarshal(message.Value, &n); err != nil {
		// a payload that never decodes would block the partition forever
		h.log.Warn("Dropping undecodable notification", "offset", message.Offset, "error", err)
		return nil
	}
	if n.RecipientID == "" || n.Type == "" {
		h.log.Warn("Dropping notification without recipient or type", "offset", message.Offset)
		return nil
	}
	if h.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.storeTimeout)
		defer cancel()
	}
	return h.repo.Create(ctx, &n)
}
