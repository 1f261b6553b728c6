package billing

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

const (
	EventCheckoutCompleted          = "checkout.session.completed"
	EventCheckoutAsyncPaymentPassed = "checkout.session.async_payment_succeeded"
)

// WebhookVerifier authenticates Stripe webhook deliveries.
type WebhookVerifier struct {
	secret    string
	tolerance time.Duration
}

// NewWebhookVerifier returns a verifier for the endpoint signing secret.
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("%w: STRIPE_WEBHOOK_SECRET is not set", ErrNotConfigured)
	}
	return &WebhookVerifier{secret: secret, tolerance: webhook.DefaultTolerance}, nil
}

// ParseEvent verifies signatureHeader against the raw, unparsed payload and
// decodes the event. The payload must be the exact bytes that were received.
func (v *WebhookVerifier) ParseEvent(payload []byte, signatureHeader string) (Event, error) {
	sig := strings.TrimSpace(signatureHeader)
	if sig == "" {
		return nil, ErrMissingSignature
	}

	if err := webhook.ValidatePayloadWithTolerance(payload, sig, v.secret, v.tolerance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	// Past this point the sender is trusted. A body we cannot decode is still
	// acknowledged, otherwise the gateway keeps retrying it.
	var evt stripe.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return IgnoredEvent{Reason: "undecodable event body"}, nil
	}
	return decodeEvent(evt), nil
}

func decodeEvent(evt stripe.Event) Event {
	eventType := string(evt.Type)
	ignored := func(reason string) Event {
		return IgnoredEvent{EventID: evt.ID, EventType: eventType, Reason: reason}
	}

	if eventType != EventCheckoutCompleted && eventType != EventCheckoutAsyncPaymentPassed {
		return ignored("unhandled event type")
	}
	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return ignored("event has no data object")
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
		return ignored("data object is not a checkout session")
	}
	// Delayed payment methods complete the session before the money arrives;
	// those are fulfilled on async_payment_succeeded instead.
	if eventType == EventCheckoutCompleted && session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		return ignored("payment not collected yet")
	}

	return PaymentCompleted{
		EventID:     evt.ID,
		EventType:   eventType,
		SessionID:   session.ID,
		Email:       sessionEmail(&session),
		TrackID:     sessionTrackID(&session),
		Source:      strings.TrimSpace(session.Metadata[MetadataSource]),
		AmountTotal: session.AmountTotal,
		Currency:    string(session.Currency),
	}
}

func sessionEmail(s *stripe.CheckoutSession) string {
	if s.CustomerDetails != nil && strings.TrimSpace(s.CustomerDetails.Email) != "" {
		return strings.TrimSpace(s.CustomerDetails.Email)
	}
	if email := strings.TrimSpace(s.CustomerEmail); email != "" {
		return email
	}
	return strings.TrimSpace(s.Metadata[MetadataEmail])
}

func sessionTrackID(s *stripe.CheckoutSession) string {
	if id := strings.TrimSpace(s.Metadata[MetadataTrackID]); id != "" {
		return id
	}
	if s.LineItems != nil && len(s.LineItems.Data) > 0 {
		item := s.LineItems.Data[0]
		if item.Price != nil && item.Price.Product != nil {
			return item.Price.Product.ID
		}
	}
	return ""
}
