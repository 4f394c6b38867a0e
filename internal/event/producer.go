package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	pkgkafka "github.com/venkatesh-palenso/palenso-api/pkg/kafka"
)

// Kafka topics for account lifecycle events.
var (
	TopicUserSignedUp        = pkgkafka.Topic("user", "signed_up")
	TopicUserActivated       = pkgkafka.Topic("user", "activated")
	TopicUserChannelVerified = pkgkafka.Topic("user", "channel_verified")
	TopicUserPasswordReset   = pkgkafka.Topic("user", "password_reset")
)

const AggregateTypeUser = "user"

// SourceAPI identifies events originating from this service.
const SourceAPI = "palenso-api"

// UserData is the payload of signed_up and activated events.
type UserData struct {
	ID           string `json:"id"`
	Email        string `json:"email,omitempty"`
	MobileNumber string `json:"mobile_number,omitempty"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         string `json:"role"`
}

// ChannelVerifiedData is the payload of a channel_verified event.
type ChannelVerifiedData struct {
	UserID  string `json:"user_id"`
	Channel string `json:"channel"`
}

// PasswordResetData is the payload of a password_reset event.
type PasswordResetData struct {
	UserID string `json:"user_id"`
}

// publisher is the part of *pkgkafka.Producer used here.
type publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes account events. A Producer built without a publisher
// drops events, which is how the service runs without Kafka.
type Producer struct {
	kafka  publisher
	logger *slog.Logger
}

func NewProducer(kafka publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func userData(u *domain.User) UserData {
	return UserData{
		ID:           u.ID,
		Email:        u.Email,
		MobileNumber: u.MobileNumber,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         u.Role,
	}
}

func (p *Producer) PublishUserSignedUp(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserSignedUp, user.ID, userData(user))
}

func (p *Producer) PublishUserActivated(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserActivated, user.ID, userData(user))
}

func (p *Producer) PublishChannelVerified(ctx context.Context, userID string, channel domain.Channel) error {
	return p.publish(ctx, TopicUserChannelVerified, userID, ChannelVerifiedData{UserID: userID, Channel: string(channel)})
}

func (p *Producer) PublishPasswordReset(ctx context.Context, userID string) error {
	return p.publish(ctx, TopicUserPasswordReset, userID, PasswordResetData{UserID: userID})
}

func (p *Producer) publish(ctx context.Context, topic, userID string, data any) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(ctx, topic, userID, AggregateTypeUser, SourceAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published user event",
		slog.String("topic", topic),
		slog.String("user_id", userID),
	)
	return nil
}
