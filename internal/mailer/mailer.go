package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/arcade-hub/internal/config"
)

// Mailer delivers transactional mail (password resets)
type Mailer interface {
	Send(to, subject, body string) error
}

// New returns an SMTP mailer when a host is configured, otherwise a
// log-only mailer for development
func New(cfg *config.SMTPConfig, logger *slog.Logger) Mailer {
	if cfg.Host == "" {
		return &LogMailer{logger: logger}
	}
	return &SMTPMailer{cfg: cfg}
}

// SMTPMailer sends mail through a plain SMTP relay
type SMTPMailer struct {
	cfg *config.SMTPConfig
}

// Send delivers a single plain-text message
func (m *SMTPMailer) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.cfg.From, to, subject, body,
	))

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

// LogMailer writes mail to the log instead of delivering it
type LogMailer struct {
	logger *slog.Logger
}

// Send logs the message
func (m *LogMailer) Send(to, subject, body string) error {
	m.logger.Info("mail (not delivered, smtp disabled)",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
