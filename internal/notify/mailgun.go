package notify

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
)

// mailgunAPI is the part of *mailgun.MailgunImpl used here.
type mailgunAPI interface {
	NewMessage(from, subject, text string, to ...string) *mailgun.Message
	Send(ctx context.Context, m *mailgun.Message) (string, string, error)
}

// MailgunSender delivers email through the Mailgun HTTP API.
type MailgunSender struct {
	mg   mailgunAPI
	from string
}

// NewMailgunSender builds a sender for domain. An empty apiBase keeps the
// library's default (US) endpoint.
func NewMailgunSender(domain, apiKey, apiBase, from string) *MailgunSender {
	mg := mailgun.NewMailgun(domain, apiKey)
	if apiBase != "" {
		mg.SetAPIBase(apiBase)
	}
	return &MailgunSender{mg: mg, from: from}
}

func (s *MailgunSender) Name() string { return "mailgun" }

func (s *MailgunSender) Send(ctx context.Context, msg *Message) error {
	m := s.mg.NewMessage(s.from, msg.Subject, msg.Text, msg.To)
	if msg.HTML != "" {
		m.SetHtml(msg.HTML)
	}
	if _, _, err := s.mg.Send(ctx, m); err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}
