package mail

import (
	"context"

	"github.com/gofiber/fiber/v2/log"
)

// LogMailer only logs outgoing messages. Used when no transport is configured.
type LogMailer struct{}

func NewLogMailer() *LogMailer { return &LogMailer{} }

func (LogMailer) Name() string { return "log" }

func (LogMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := msg.validate(); err != nil {
		return err
	}
	log.Warnf("[Mail] No mail transport configured, would send %q to %s (%d bytes)", msg.Subject, msg.To, len(msg.HTML))
	return nil
}
