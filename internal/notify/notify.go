// Package notify delivers verification codes, reset links and welcome mail
// over email and SMS.
package notify

import (
	"context"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
)

// Message is one outbound notification. HTML is only used by email senders.
type Message struct {
	Channel domain.Channel
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages over a single channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
}
