// Package email sends transactional mail: reply notifications to posters and
// feedback to the operator.
package email

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/lingxijiao/backend/internal/config"
	"go.uber.org/zap"
)

// Message is one outbound email. HTML may be empty for plain-text mail.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers messages over some transport
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender builds the sender selected by cfg.Transport
func NewSender(ctx context.Context, cfg config.MailConfig, log *zap.Logger) (Sender, error) {
	switch cfg.Transport {
	case config.MailTransportSES:
		return NewSESSender(ctx, cfg.AWSRegion, cfg.FromAddress, cfg.FromName)
	case config.MailTransportSMTP:
		return NewSMTPSender(cfg)
	case config.MailTransportLog, "":
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
}

// formatFrom renders the sender mailbox. Non-ASCII display names are
// written as RFC 2047 encoded words, which SES requires in Source.
func formatFrom(name, address string) string {
	if name == "" {
		return address
	}
	return (&mail.Address{Name: name, Address: address}).String()
}

// LogSender writes messages to the log instead of sending them
type LogSender struct {
	log *zap.Logger
}

// NewLogSender creates a development sender
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs the message
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.log.Info("Email (log transport)",
		zap.String("to", strings.Join(msg.To, ",")),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
		zap.String("text", msg.Text),
	)
	return nil
}
