package mail

import (
	"context"
	"errors"
	"strings"

	"github.com/swiden/trackstore/internal/pkg/config"
)

var ErrInvalidMessage = errors.New("mail: recipient and subject are required")

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" || strings.TrimSpace(m.Subject) == "" {
		return ErrInvalidMessage
	}
	return nil
}

// Mailer delivers messages. Implementations must honour ctx cancellation.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// NewFromConfig picks the transport: Resend when an API key is set, then
// SMTP, otherwise messages are only logged.
func NewFromConfig(cfg config.Mail) Mailer {
	switch {
	case strings.TrimSpace(cfg.ResendAPIKey) != "":
		return NewResendMailer(cfg.ResendBaseURL, cfg.ResendAPIKey, cfg.From, cfg.Timeout)
	case strings.TrimSpace(cfg.SMTPHost) != "":
		return NewSMTPMailer(cfg)
	default:
		return NewLogMailer()
	}
}
