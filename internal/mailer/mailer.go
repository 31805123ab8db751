package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

// Mailer sends HTML mail over SMTP. When no SMTP user is configured it logs
// the message instead of sending, so local development works without a relay.
type Mailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// New creates a mailer from SMTP settings.
func New(cfg config.SMTPConfig, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger}
}

// Send delivers a single HTML message to one recipient.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	if m.cfg.User == "" {
		m.logger.Info("smtp not configured, logging mail instead",
			zap.String("to", to),
			zap.String("subject", subject))
		return nil
	}

	from := m.cfg.From
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", m.cfg.FromName, from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
