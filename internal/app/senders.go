package app

import (
	"fmt"
	"log/slog"

	"github.com/venkatesh-palenso/palenso-api/internal/config"
	"github.com/venkatesh-palenso/palenso-api/internal/notify"
	"github.com/venkatesh-palenso/palenso-api/pkg/httpclient"
)

// newSenders builds the email and SMS senders selected by MAIL_DRIVER and
// SMS_DRIVER.
func newSenders(cfg *config.Config, logger *slog.Logger) (email, sms notify.Sender, err error) {
	switch cfg.MailDriver {
	case config.MailDriverLog:
		email = notify.NewLogSender(logger)
	case config.MailDriverMailgun:
		email = notify.NewMailgunSender(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunAPIBase, cfg.MailFrom)
	case config.MailDriverSMTP:
		email = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	default:
		return nil, nil, fmt.Errorf("unsupported mail driver %q", cfg.MailDriver)
	}

	switch cfg.SMSDriver {
	case config.SMSDriverLog:
		sms = notify.NewLogSender(logger)
	case config.SMSDriverHTTP:
		clientCfg := httpclient.DefaultConfig()
		clientCfg.Timeout = cfg.NotificationSendTimeout
		cb := httpclient.NewCircuitBreakerClient(
			httpclient.New(clientCfg),
			httpclient.DefaultCircuitBreakerConfig("sms-gateway"),
			logger,
		)
		sms = notify.NewHTTPSMSSender(cb, cfg.SMSGatewayURL, cfg.SMSAPIKey)
	default:
		return nil, nil, fmt.Errorf("unsupported sms driver %q", cfg.SMSDriver)
	}

	logger.Info("notification senders configured",
		slog.String("email", email.Name()),
		slog.String("sms", sms.Name()),
	)
	return email, sms, nil
}
