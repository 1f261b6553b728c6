package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/swiden/trackstore/internal/pkg/billing"
	"github.com/swiden/trackstore/internal/pkg/catalog"
	"github.com/swiden/trackstore/internal/pkg/constants"
	"github.com/swiden/trackstore/internal/pkg/fulfillment"
)

const (
	DefaultFulfillmentTimeout = 15 * time.Second
	releaseTimeout            = 2 * time.Second
)

// EventParser authenticates a raw webhook delivery and decodes it.
type EventParser interface {
	ParseEvent(payload []byte, signatureHeader string) (billing.Event, error)
}

// GrantIssuer creates signed download grants.
type GrantIssuer interface {
	Generate(trackID, orderRef string) (string, error)
	TTL() time.Duration
}

// WebhookOptions wires the payment confirmation receiver. Parser nil means
// the signing secret is missing. Ledger and Grants are optional.
type WebhookOptions struct {
	Parser   EventParser
	Ledger   billing.EventLedger
	Notifier fulfillment.Notifier
	Catalog  *catalog.Catalog
	Grants   GrantIssuer
	SiteURL  string
	Timeout  time.Duration
}

type WebhookController struct {
	opts WebhookOptions
}

func NewWebhookController(opts WebhookOptions) *WebhookController {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFulfillmentTimeout
	}
	opts.SiteURL = strings.TrimRight(strings.TrimSpace(opts.SiteURL), "/")
	return &WebhookController{opts: opts}
}

// HandleStripeWebhook answers 200 for every authentic delivery, including
// ones whose fulfillment fails, so the gateway stops retrying.
func (wc *WebhookController) HandleStripeWebhook(c *fiber.Ctx) error {
	if wc.opts.Parser == nil {
		log.Errorf("[Webhook] %v: STRIPE_WEBHOOK_SECRET is not set", billing.ErrNotConfigured)
		return c.Status(fiber.StatusInternalServerError).SendString(msgWebhookNotConfigured)
	}

	// the signature covers the exact bytes received
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))

	event, err := wc.opts.Parser.ParseEvent(rawBody, signature)
	switch {
	case errors.Is(err, billing.ErrMissingSignature):
		log.Warnf("[Webhook] Rejected delivery from %s: %v", ClientIP(c), err)
		return c.Status(fiber.StatusBadRequest).SendString(msgMissingSignature)
	case err != nil:
		log.Warnf("[Webhook] Signature verification failed from %s: %v", ClientIP(c), err)
		return c.Status(fiber.StatusBadRequest).SendString(msgInvalidSignature)
	}

	switch evt := event.(type) {
	case billing.PaymentCompleted:
		wc.handlePaymentCompleted(c, evt)
	case billing.IgnoredEvent:
		log.Debugf("[Webhook] Ignored event %s (%s): %s", evt.EventID, evt.EventType, evt.Reason)
	default:
		log.Warnf("[Webhook] Unexpected event value %T", event)
	}
	return c.Status(fiber.StatusOK).SendString("ok")
}

func (wc *WebhookController) handlePaymentCompleted(c *fiber.Ctx, evt billing.PaymentCompleted) {
	ctx, cancel := context.WithTimeout(context.Background(), wc.opts.Timeout)
	defer cancel()

	claimed := false
	if wc.opts.Ledger != nil {
		first, err := wc.opts.Ledger.Claim(ctx, evt.EventID)
		switch {
		case err != nil:
			log.Errorf("[Webhook] Dedup ledger unavailable for %s, processing anyway: %v", evt.EventID, err)
		case !first:
			log.Infof("[Webhook] Event %s already handled, skipping", evt.EventID)
			return
		default:
			claimed = true
		}
	}

	if err := wc.fulfill(ctx, c, evt); err != nil {
		log.Errorf("[Webhook] Session %s not fulfilled: %v", evt.SessionID, err)
		if claimed {
			wc.releaseClaim(evt.EventID)
		}
		return
	}
	log.Infof("[Webhook] Fulfilled track %s for session %s", evt.TrackID, evt.SessionID)
}

// releaseClaim lets a later redelivery of a failed event through. It runs on
// its own deadline since the fulfillment one may already be spent.
func (wc *WebhookController) releaseClaim(eventID string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := wc.opts.Ledger.Release(ctx, eventID); err != nil {
		log.Errorf("[Webhook] Could not release event %s, redeliveries will be skipped: %v", eventID, err)
	}
}

func (wc *WebhookController) fulfill(ctx context.Context, c *fiber.Ctx, evt billing.PaymentCompleted) error {
	if evt.Email == "" || evt.TrackID == "" {
		return fmt.Errorf("%w: no email or trackId in session", fulfillment.ErrFulfillmentFailed)
	}

	f := fulfillment.Fulfillment{Recipient: evt.Email, OrderRef: evt.SessionID}
	if wc.opts.Catalog != nil {
		if track, err := wc.opts.Catalog.Lookup(evt.TrackID); err == nil {
			f.TrackTitle = track.Title
		}
	}

	link, expires := wc.downloadLink(c, evt)
	if link == "" {
		return fmt.Errorf("%w: no download link for track %s", fulfillment.ErrFulfillmentFailed, evt.TrackID)
	}
	f.DownloadURL = link
	f.ExpiresIn = expires

	if wc.opts.Notifier == nil {
		return fmt.Errorf("%w: no notifier configured", fulfillment.ErrFulfillmentFailed)
	}
	return wc.opts.Notifier.Notify(ctx, f)
}

// downloadLink prefers a signed grant for catalog tracks and falls back to
// the source path carried in the session metadata.
func (wc *WebhookController) downloadLink(c *fiber.Ctx, evt billing.PaymentCompleted) (string, time.Duration) {
	if wc.opts.Grants != nil && wc.opts.Catalog != nil {
		if _, err := wc.opts.Catalog.Lookup(evt.TrackID); err == nil {
			token, err := wc.opts.Grants.Generate(evt.TrackID, evt.SessionID)
			if err == nil {
				q := url.Values{}
				q.Set("token", token)
				q.Set("track", evt.TrackID)
				return publicOrigin(c, wc.opts.SiteURL) + constants.DownloadRoute + "?" + q.Encode(), wc.opts.Grants.TTL()
			}
			log.Errorf("[Webhook] Could not issue download grant for track %s: %v", evt.TrackID, err)
		}
	}

	src := evt.Source
	if strings.HasPrefix(src, "/") && wc.opts.SiteURL != "" {
		return wc.opts.SiteURL + src, 0
	}
	return src, 0
}
