package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
)

const defaultSendTimeout = 10 * time.Second

var notificationsSent = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Outbound notifications by channel, kind and outcome",
	},
	[]string{"channel", "kind", "status"},
)

// Dispatcher renders messages and hands them to the sender of their channel.
type Dispatcher struct {
	senders   map[domain.Channel]Sender
	templates *Templates
	product   string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewDispatcher routes email to email and SMS to sms. Either may be nil, in
// which case sends on that channel fail.
func NewDispatcher(email, sms Sender, templates *Templates, product string, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	senders := make(map[domain.Channel]Sender, 2)
	if email != nil {
		senders[domain.ChannelEmail] = email
	}
	if sms != nil {
		senders[domain.ChannelMobile] = sms
	}
	return &Dispatcher{
		senders:   senders,
		templates: templates,
		product:   product,
		timeout:   timeout,
		logger:    logger,
	}
}

// SendVerification delivers a verification code to the user's address on channel.
func (d *Dispatcher) SendVerification(ctx context.Context, user *domain.User, channel domain.Channel, code string, ttl time.Duration) error {
	var msg *Message
	if channel == domain.ChannelMobile {
		msg = &Message{Text: verificationSMS(d.product, code, ttl)}
	} else {
		var err error
		if msg, err = d.templates.Verification(user.FullName(), code, ttl); err != nil {
			return err
		}
	}
	return d.send(ctx, "verification", channel, user.ChannelValue(channel), msg)
}

// SendPasswordReset delivers a reset token to the user's address on channel.
func (d *Dispatcher) SendPasswordReset(ctx context.Context, user *domain.User, channel domain.Channel, token string, ttl time.Duration) error {
	var msg *Message
	if channel == domain.ChannelMobile {
		msg = &Message{Text: passwordResetSMS(d.product, token, ttl)}
	} else {
		var err error
		if msg, err = d.templates.PasswordReset(user.FullName(), token, ttl); err != nil {
			return err
		}
	}
	return d.send(ctx, "password_reset", channel, user.ChannelValue(channel), msg)
}

// SendWelcome emails a newly activated user.
func (d *Dispatcher) SendWelcome(ctx context.Context, to, name string) error {
	msg, err := d.templates.Welcome(name)
	if err != nil {
		return err
	}
	return d.send(ctx, "welcome", domain.ChannelEmail, to, msg)
}

func (d *Dispatcher) send(ctx context.Context, kind string, channel domain.Channel, to string, msg *Message) error {
	sender, ok := d.senders[channel]
	if !ok {
		notificationsSent.WithLabelValues(string(channel), kind, "failed").Inc()
		return fmt.Errorf("no sender configured for channel %s", channel)
	}
	if to == "" {
		notificationsSent.WithLabelValues(string(channel), kind, "failed").Inc()
		return fmt.Errorf("no %s address to send %s to", channel, kind)
	}

	msg.Channel = channel
	msg.To = to

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := sender.Send(ctx, msg); err != nil {
		notificationsSent.WithLabelValues(string(channel), kind, "failed").Inc()
		d.logger.ErrorContext(ctx, "notification failed",
			slog.String("sender", sender.Name()),
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("send %s via %s: %w", kind, sender.Name(), err)
	}

	notificationsSent.WithLabelValues(string(channel), kind, "sent").Inc()
	return nil
}
