package billing

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// Gateway creates hosted checkout sessions.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// StripeGateway implements Gateway with Stripe Checkout.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway builds a client whose HTTP calls are bounded by timeout.
func NewStripeGateway(secretKey string, timeout time.Duration) (*StripeGateway, error) {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return newStripeGateway(secretKey, stripe.NewBackends(&http.Client{Timeout: timeout}))
}

func newStripeGateway(secretKey string, backends *stripe.Backends) (*StripeGateway, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return nil, fmt.Errorf("%w: STRIPE_SECRET_KEY is not set", ErrNotConfigured)
	}
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeGateway{api: api}, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := buildSessionParams(req)
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}
	if s.URL == "" {
		return nil, fmt.Errorf("%w: session %s has no url", ErrSessionCreationFailed, s.ID)
	}

	return &CheckoutSession{ID: s.ID, URL: s.URL, TrackID: req.TrackID}, nil
}

// buildSessionParams maps a request onto a one-line-item payment session. The
// track id travels in metadata because there is no order table to join on
// when the webhook arrives.
func buildSessionParams(req CheckoutRequest) *stripe.CheckoutSessionParams {
	productMetadata := map[string]string{MetadataTrackID: req.TrackID}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.UnitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:     stripe.String(req.ProductName),
						Metadata: productMetadata,
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.AddMetadata(MetadataTrackID, req.TrackID)
	if req.Source != "" {
		params.AddMetadata(MetadataSource, req.Source)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
		params.AddMetadata(MetadataEmail, req.CustomerEmail)
	}
	return params
}
