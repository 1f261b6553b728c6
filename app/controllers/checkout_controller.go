package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/swiden/trackstore/app/models"
	"github.com/swiden/trackstore/internal/pkg/billing"
	"github.com/swiden/trackstore/internal/pkg/catalog"
)

// CheckoutController starts hosted checkout sessions.
type CheckoutController struct {
	gateway billing.Gateway
	catalog *catalog.Catalog
	siteURL string
}

// NewCheckoutController creates the controller. A nil gateway makes every
// checkout fail with 500 until the secret key is configured.
func NewCheckoutController(gateway billing.Gateway, cat *catalog.Catalog, siteURL string) *CheckoutController {
	return &CheckoutController{gateway: gateway, catalog: cat, siteURL: siteURL}
}

func (cc *CheckoutController) HandleCreateCheckout(c *fiber.Ctx) error {
	var in models.CheckoutInput
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		log.Debugf("[Checkout] Invalid body: %v", err)
		return jsonError(c, fiber.StatusBadRequest, msgInvalidBody)
	}
	if strings.TrimSpace(in.TrackID.String()) == "" {
		log.Debugf("[Checkout] %v: trackId", ErrMissingParameter)
		return jsonError(c, fiber.StatusBadRequest, msgMissingTrackID)
	}
	if err := in.Validate(); err != nil {
		field := models.InvalidField(err)
		if field == "" {
			return jsonError(c, fiber.StatusBadRequest, msgInvalidBody)
		}
		return jsonError(c, fiber.StatusBadRequest, "Invalid "+field)
	}

	req := cc.sessionRequest(c, in)
	session, err := cc.createSession(c, req)
	if err != nil {
		log.Errorf("[Checkout] Session for track %s failed: %v", req.TrackID, err)
		return jsonError(c, fiber.StatusInternalServerError, msgCheckoutFailed)
	}

	log.Infof("[Checkout] Session %s created for track %s", session.ID, session.TrackID)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"url": session.URL})
}

func (cc *CheckoutController) createSession(c *fiber.Ctx, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	if cc.gateway == nil {
		return nil, fmt.Errorf("%w: %w", billing.ErrSessionCreationFailed, billing.ErrNotConfigured)
	}
	session, err := cc.gateway.CreateCheckoutSession(c.UserContext(), req)
	if err != nil {
		if !errors.Is(err, billing.ErrSessionCreationFailed) {
			err = fmt.Errorf("%w: %w", billing.ErrSessionCreationFailed, err)
		}
		return nil, err
	}
	return session, nil
}

// sessionRequest fills price, currency and title from the request first and
// the catalog second.
func (cc *CheckoutController) sessionRequest(c *fiber.Ctx, in models.CheckoutInput) billing.CheckoutRequest {
	trackID := in.TrackID.String()
	track, known := cc.lookup(trackID)

	unitAmount, ok := in.PositiveAmount()
	if !ok {
		unitAmount = catalog.DefaultUnitAmount
		if known && track.UnitAmount > 0 {
			unitAmount = track.UnitAmount
		}
	}

	currency := strings.ToLower(in.Currency)
	if currency == "" {
		currency = catalog.DefaultCurrency
		if known && track.Currency != "" {
			currency = track.Currency
		}
	}

	title := in.Title
	if title == "" && known {
		title = track.Title
	}
	productName := "Product #" + trackID
	if title != "" {
		productName = "Track: " + title
	}

	origin := publicOrigin(c, cc.siteURL)
	return billing.CheckoutRequest{
		TrackID:       trackID,
		ProductName:   productName,
		Source:        in.Src,
		UnitAmount:    unitAmount,
		Currency:      currency,
		CustomerEmail: in.CustomerEmail,
		SuccessURL:    origin + "/?success=true&track=" + url.QueryEscape(trackID),
		CancelURL:     origin + "/?canceled=true",
	}
}

func (cc *CheckoutController) lookup(trackID string) (models.Track, bool) {
	if cc.catalog == nil {
		return models.Track{}, false
	}
	track, err := cc.catalog.Lookup(trackID)
	return track, err == nil
}
