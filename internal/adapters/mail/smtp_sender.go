// Package mail implements the mail-sending collaborator. Delivery is
// someone else's problem: a Send that returns nil only means the relay
// accepted the hand-off.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"scholarfund/internal/core/ports"
)

// SMTPSender hands messages to an SMTP relay.
type SMTPSender struct {
	addr string
	from string
	log  zerolog.Logger
}

var _ ports.MailSender = (*SMTPSender)(nil) // Ensure compliance

// NewSMTPSender creates the sender. addr is host:port of the relay.
func NewSMTPSender(addr, from string, baseLogger *zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		addr: addr,
		from: from,
		log:  baseLogger.With().Str("component", "smtp_sender").Logger(),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg ports.MailMessage) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)

	if err := smtp.SendMail(s.addr, nil, s.from, []string{msg.To}, []byte(b.String())); err != nil {
		s.log.Error().Err(err).Str("to", msg.To).Msg("SMTP hand-off failed")
		return err
	}
	return nil
}

// LogSender is the dev stand-in: it logs the message instead of sending
// it, and never fails.
type LogSender struct {
	log zerolog.Logger
}

var _ ports.MailSender = (*LogSender)(nil) // Ensure compliance

// NewLogSender creates the dev sender.
func NewLogSender(baseLogger *zerolog.Logger) *LogSender {
	return &LogSender{log: baseLogger.With().Str("component", "log_mail_sender").Logger()}
}

func (s *LogSender) Send(ctx context.Context, msg ports.MailMessage) error {
	s.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("Mail (dev mode, not sent)")
	return nil
}
