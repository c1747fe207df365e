package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/example/todo-app/config"
	"go.uber.org/zap"
	mail "gopkg.in/mail.v2"
)

// Mailer delivers composed emails.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// NewMailer returns an SMTP mailer when a host is configured and a logging
// mailer otherwise.
func NewMailer(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if cfg.Host == "" {
		return &LogMailer{logger: logger}
	}
	return NewSMTPMailer(cfg)
}

// SMTPMailer sends email through an SMTP relay.
type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = 10 * time.Second
	return &SMTPMailer{dialer: d, from: cfg.From}
}

func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.HTML)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", email.To, err)
	}
	return nil
}

// LogMailer logs emails instead of sending them. It is used when no SMTP
// host is configured.
type LogMailer struct {
	logger *zap.Logger
}

func (m *LogMailer) Send(_ context.Context, email Email) error {
	m.logger.Info("email not sent, no smtp host configured",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("html", email.HTML),
	)
	return nil
}
