package notify

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of delivering them. It is the
// development driver for both channels.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Name() string { return "log" }

// Send logs the recipient and subject. The body is logged at debug level only
// since it carries the code.
func (s *LogSender) Send(ctx context.Context, msg *Message) error {
	s.logger.InfoContext(ctx, "notification sent",
		slog.String("sender", s.Name()),
		slog.String("channel", string(msg.Channel)),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	s.logger.DebugContext(ctx, "notification body", slog.String("text", msg.Text))
	return nil
}
