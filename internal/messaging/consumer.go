package messaging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var consumerTracer = otel.Tracer("messaging/consumer")

// HandlerFunc processes one message. Returning an error stops the consumer
// without committing the message, unless the consumer was told to skip it.
type HandlerFunc func(ctx context.Context, key string, payload []byte) error

type Consumer struct {
	reader  *kafka.Reader
	topic   string
	groupID string
	skip    func(error) bool
	logger  *slog.Logger
}

type ConsumerOption func(*consumerOptions)

type consumerOptions struct {
	reader kafka.ReaderConfig
	skip   func(error) bool
	logger *slog.Logger
}

func WithStartOffset(offset int64) ConsumerOption {
	return func(o *consumerOptions) {
		o.reader.StartOffset = offset
	}
}

// WithSkip commits past messages whose handler error satisfies skip instead
// of stopping the consumer.
func WithSkip(skip func(error) bool) ConsumerOption {
	return func(o *consumerOptions) {
		o.skip = skip
	}
}

func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(o *consumerOptions) {
		o.logger = logger
	}
}

func NewConsumer(brokers []string, topic, groupID string, opts ...ConsumerOption) *Consumer {
	o := consumerOptions{
		reader: kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		},
		skip:   func(error) bool { return false },
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(&o)
	}

	return &Consumer{
		reader:  kafka.NewReader(o.reader),
		topic:   topic,
		groupID: groupID,
		skip:    o.skip,
		logger:  o.logger,
	}
}

func (c *Consumer) Consume(ctx context.Context, handler HandlerFunc) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		if err := c.processMessage(ctx, msg, handler); err != nil {
			if !c.skip(err) {
				return fmt.Errorf("process %s offset %d: %w", c.topic, msg.Offset, err)
			}
			c.logger.Warn("skipping message",
				"error", err,
				"topic", c.topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"key", string(msg.Key),
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit %s offset %d: %w", c.topic, msg.Offset, err)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message, handler HandlerFunc) error {
	parentCtx := otel.GetTextMapPropagator().Extract(ctx, NewMessageCarrier(&msg))

	spanCtx, span := consumerTracer.Start(parentCtx, "process "+c.topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("process"),
			semconv.MessagingOperationTypeDeliver,
			semconv.MessagingDestinationName(c.topic),
			semconv.MessagingKafkaConsumerGroup(c.groupID),
			semconv.MessagingKafkaMessageOffset(int(msg.Offset)),
			semconv.MessagingDestinationPartitionID(strconv.Itoa(msg.Partition)),
			semconv.MessagingKafkaMessageKey(string(msg.Key)),
		),
	)
	defer span.End()

	if err := handler(spanCtx, string(msg.Key), msg.Value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("messaging.message.skipped", c.skip(err)))
		return err
	}

	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
