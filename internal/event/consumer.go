package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/venkatesh-palenso/palenso-api/pkg/kafka"
)

// ConsumerGroupID is the group the welcome mailer reads in.
const ConsumerGroupID = "palenso-api-welcome"

// WelcomeSender is the part of the notification dispatcher the consumer needs.
type WelcomeSender interface {
	SendWelcome(ctx context.Context, to, name string) error
}

// WelcomeHandler emails users once their account is activated.
type WelcomeHandler struct {
	sender WelcomeSender
	logger *slog.Logger
}

func NewWelcomeHandler(sender WelcomeSender, logger *slog.Logger) *WelcomeHandler {
	return &WelcomeHandler{sender: sender, logger: logger}
}

// Handle sends the welcome email for an activated event. Other event types
// are ignored.
func (h *WelcomeHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	if event.EventType != TopicUserActivated {
		h.logger.WarnContext(ctx, "unexpected event type",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	var data UserData
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}
	if data.Email == "" {
		h.logger.DebugContext(ctx, "activated user has no email, skipping welcome",
			slog.String("user_id", data.ID),
		)
		return nil
	}

	name := data.FirstName
	if name == "" {
		name = data.Email
	}
	if err := h.sender.SendWelcome(ctx, data.Email, name); err != nil {
		return fmt.Errorf("send welcome to user %s: %w", data.ID, err)
	}

	h.logger.InfoContext(ctx, "welcome email sent", slog.String("user_id", data.ID))
	return nil
}

// NewWelcomeConsumer subscribes the handler to activated events. Redelivered
// events are skipped through store.
func NewWelcomeConsumer(
	brokers []string,
	handler *WelcomeHandler,
	store pkgkafka.IdempotencyStore,
	dlq *pkgkafka.DLQProducer,
	logger *slog.Logger,
) *pkgkafka.Consumer {
	cfg := pkgkafka.ConsumerConfig{
		Brokers:  brokers,
		GroupID:  ConsumerGroupID,
		Topic:    TopicUserActivated,
		MinBytes: 1,
		MaxBytes: 10e6,
	}
	return pkgkafka.NewConsumer(cfg, pkgkafka.IdempotentHandler(store, handler.Handle, logger), dlq, logger)
}
