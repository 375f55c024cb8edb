package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/salesledger/backend/internal/domain/reporting"
	"github.com/salesledger/backend/internal/infrastructure/config"
)

// SMTPSender delivers report emails over plain SMTP
type SMTPSender struct {
	cfg config.SMTPConfig
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send delivers a single plain-text email. The context is checked before
// dialing; net/smtp itself does not support cancellation mid-send.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	msg := s.buildMessage(to, subject, body)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// buildMessage assembles the RFC 5322 message with CRLF line endings
func (s *SMTPSender) buildMessage(to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.cfg.FromName, s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// Ensure SMTPSender implements Sender
var _ reporting.Sender = (*SMTPSender)(nil)
