package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// DefaultDeadLetterPrefix prefixes dead-letter topics when none is configured.
const DefaultDeadLetterPrefix = "storefront.dlq"

// DeadLetterPublisher parks messages the consumer gave up on, keeping the
// original payload and recording where it came from in headers.
type DeadLetterPublisher struct {
	writer MessageWriter
	prefix string
	group  string
	logger *slog.Logger
}

// NewDeadLetterPublisher creates a synchronous publisher writing to
// "<prefix>.<source topic>".
func NewDeadLetterPublisher(brokers []string, prefix, group string, logger *slog.Logger) *DeadLetterPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              1,
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return NewDeadLetterPublisherWithWriter(w, prefix, group, logger)
}

// NewDeadLetterPublisherWithWriter wraps an existing writer.
func NewDeadLetterPublisherWithWriter(w MessageWriter, prefix, group string, logger *slog.Logger) *DeadLetterPublisher {
	if prefix == "" {
		prefix = DefaultDeadLetterPrefix
	}
	return &DeadLetterPublisher{writer: w, prefix: prefix, group: group, logger: logger}
}

// Topic returns the dead-letter topic for a source topic.
func (d *DeadLetterPublisher) Topic(source string) string {
	return d.prefix + "." + source
}

// Publish copies msg to its dead-letter topic with the failure attached.
func (d *DeadLetterPublisher) Publish(ctx context.Context, msg kafka.Message, cause error) error {
	topic := d.Topic(msg.Topic)

	headers := append([]kafka.Header(nil), msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "dlq.original_topic", Value: []byte(msg.Topic)},
		kafka.Header{Key: "dlq.original_partition", Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: "dlq.original_offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: "dlq.consumer_group", Value: []byte(d.group)},
	)
	if cause != nil {
		headers = append(headers, kafka.Header{Key: "dlq.error", Value: []byte(cause.Error())})
	}

	err := d.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	d.logger.Warn("message parked in dead-letter topic",
		slog.String("dlq_topic", topic),
		slog.String("original_topic", msg.Topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
	)
	return nil
}

// Close closes the underlying writer.
func (d *DeadLetterPublisher) Close() error {
	return d.writer.Close()
}
