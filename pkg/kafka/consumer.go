package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/venkatesh-palenso/palenso-api/pkg/logger"
)

const (
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 200 * time.Millisecond
)

// Handler processes one event. A returned error triggers a retry.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int

	// MaxAttempts is how often the handler runs before a message is given up on.
	MaxAttempts int
	// RetryBackoff is multiplied by the attempt number between attempts.
	RetryBackoff time.Duration
}

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads one topic as part of a consumer group. Offsets are committed
// only after the handler succeeded or the message was given up on, so a crash
// mid-handler redelivers the message.
type Consumer struct {
	reader      messageReader
	handler     Handler
	dlq         *DLQProducer
	logger      *slog.Logger
	topic       string
	group       string
	maxAttempts int
	backoff     time.Duration
	closeOnce   sync.Once
}

// NewConsumer creates a consumer. dlq may be nil, in which case messages that
// exhaust their retries are logged and skipped.
func NewConsumer(cfg ConsumerConfig, handler Handler, dlq *DLQProducer, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})
	return newConsumer(r, cfg, handler, dlq, logger)
}

func newConsumer(r messageReader, cfg ConsumerConfig, handler Handler, dlq *DLQProducer, logger *slog.Logger) *Consumer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	return &Consumer{
		reader:      r,
		handler:     handler,
		dlq:         dlq,
		logger:      logger,
		topic:       cfg.Topic,
		group:       cfg.GroupID,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.RetryBackoff,
	}
}

// Start consumes until ctx is canceled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.InfoContext(ctx, "consumer started",
		slog.String("topic", c.topic),
		slog.String("group", c.group),
	)
	defer c.Close() //nolint:errcheck

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", slog.String("topic", c.topic))
				return nil
			}
			c.logger.ErrorContext(ctx, "fetch message failed", slog.String("error", err.Error()))
			continue
		}

		if err := c.process(ctx, msg); err != nil {
			// Only cancellation ends up here; leave the offset uncommitted.
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.ErrorContext(ctx, "commit message failed",
				slog.String("topic", msg.Topic),
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
		}
	}
}

// process runs the handler with retries. It only returns an error when ctx
// was canceled before the message was dealt with.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	ctx = otel.GetTextMapPropagator().Extract(ctx, NewHeaderCarrier(&msg))
	ctx, span := otel.Tracer(tracerName).Start(ctx, "consume "+msg.Topic, trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		c.logger.ErrorContext(ctx, "undecodable message",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		c.giveUp(ctx, msg, err)
		return nil
	}
	if event.CorrelationID != "" {
		ctx = logger.WithCorrelationID(ctx, event.CorrelationID)
	}

	start := time.Now()
	defer func() {
		consumerProcessingDuration.WithLabelValues(c.topic, c.group).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if lastErr = c.handler(ctx, event); lastErr == nil {
			consumerMessagesProcessed.WithLabelValues(c.topic, c.group).Inc()
			return nil
		}
		if errors.Is(lastErr, context.Canceled) && ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.WarnContext(ctx, "handler failed",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", c.maxAttempts),
			slog.String("error", lastErr.Error()),
		)
		if attempt == c.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}

	c.giveUp(ctx, msg, lastErr)
	return nil
}

func (c *Consumer) giveUp(ctx context.Context, msg kafka.Message, cause error) {
	consumerMessagesFailed.WithLabelValues(c.topic, c.group).Inc()
	if c.dlq == nil {
		c.logger.ErrorContext(ctx, "dropping message after retries",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
		)
		return
	}
	if err := c.dlq.Publish(ctx, msg, cause, c.group); err != nil {
		c.logger.ErrorContext(ctx, "dead-letter publish failed, dropping message",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		return
	}
	consumerDLQPublished.WithLabelValues(c.topic, c.group).Inc()
}

// Close closes the consumer. It is safe to call multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}

const tracerName = "github.com/venkatesh-palenso/palenso-api/pkg/kafka"
