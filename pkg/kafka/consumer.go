package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler processes one decoded event.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig configures a consumer group reading one or more topics.
type ConsumerConfig struct {
	Brokers    []string
	GroupID    string
	Topics     []string
	MinBytes   int
	MaxBytes   int
	MaxRetries int
	RetryWait  time.Duration
}

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer fetches messages, hands decoded events to a Handler and commits
// offsets. A message whose handler keeps failing is committed after
// MaxRetries attempts so one bad event cannot stall the partition.
type Consumer struct {
	reader     MessageReader
	handler    Handler
	logger     *slog.Logger
	maxRetries int
	retryWait  time.Duration
	deadLetter *DeadLetterPublisher
	closeOnce  sync.Once
}

// NewConsumer creates a group consumer over cfg.Topics.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
	})
	return NewConsumerWithReader(r, cfg, handler, logger)
}

// NewConsumerWithReader wraps an existing reader.
func NewConsumerWithReader(r MessageReader, cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 100 * time.Millisecond
	}
	return &Consumer{
		reader:     r,
		handler:    handler,
		logger:     logger,
		maxRetries: cfg.MaxRetries,
		retryWait:  cfg.RetryWait,
	}
}

// WithDeadLetter makes the consumer park exhausted messages in d before
// committing them.
func (c *Consumer) WithDeadLetter(d *DeadLetterPublisher) *Consumer {
	c.deadLetter = d
	return c
}

// Start consumes until ctx is cancelled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	defer c.Close()
	c.logger.Info("consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("consumer stopping")
				return nil
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			if !sleep(ctx, c.retryWait) {
				return nil
			}
			continue
		}

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit message",
				slog.String("topic", msg.Topic),
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	start := time.Now()
	defer func() {
		consumerDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
	}()

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		consumerFailed.WithLabelValues(msg.Topic, "undecodable").Inc()
		c.logger.Error("skipping undecodable message",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		return
	}

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err = c.handler(ctx, event)
		if err == nil {
			consumerProcessed.WithLabelValues(msg.Topic).Inc()
			return
		}
		c.logger.Warn("event handler failed",
			slog.String("topic", msg.Topic),
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		if attempt < c.maxRetries && !sleep(ctx, time.Duration(attempt)*c.retryWait) {
			return
		}
	}
	consumerFailed.WithLabelValues(msg.Topic, "retries_exhausted").Inc()
	c.logger.Error("giving up on event",
		slog.String("topic", msg.Topic),
		slog.String("event_type", event.EventType),
		slog.String("event_id", event.EventID),
		slog.Int("attempts", c.maxRetries),
	)
	if c.deadLetter != nil {
		if dlqErr := c.deadLetter.Publish(ctx, msg, err); dlqErr != nil {
			c.logger.Error("dead-letter publish failed",
				slog.String("event_id", event.EventID),
				slog.String("error", dlqErr.Error()),
			)
		}
	}
}

// Close closes the reader once.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.reader.Close() })
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
