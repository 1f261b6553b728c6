package controllers

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/swiden/trackstore/internal/pkg/billing"
	"github.com/swiden/trackstore/internal/pkg/catalog"
	"github.com/swiden/trackstore/internal/pkg/security"
)

const testWebhookSecret = "whsec_controller_test"

func completedEvent(eventID, email, trackID string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_%s",
			"object": "checkout.session",
			"payment_status": "paid",
			"customer_details": {"email": %q},
			"metadata": {"trackId": %q, "src": "/audio/sample%s.mp3"}
		}}
	}`, eventID, eventID, email, trackID, trackID)
}

func signedHeaders(payload, secret string) map[string]string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return map[string]string{"Stripe-Signature": signed.Header}
}

func newWebhookApp(t *testing.T, opts WebhookOptions) *fiber.App {
	t.Helper()
	if opts.Parser == nil {
		v, err := billing.NewWebhookVerifier(testWebhookSecret)
		require.NoError(t, err)
		opts.Parser = v
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	app := fiber.New()
	app.Post("/api/stripe/webhook", NewWebhookController(opts).HandleStripeWebhook)
	return app
}

func postEvent(t *testing.T, app *fiber.App, payload string, headers map[string]string) (int, string) {
	t.Helper()
	resp := doRequest(t, app, fiber.MethodPost, "/api/stripe/webhook", payload, headers)
	return resp.StatusCode, readBody(t, resp)
}

func TestWebhook_FulfillsCompletedPayment(t *testing.T) {
	notifier := &fakeNotifier{}
	signer, err := security.NewDownloadSigner("grant-secret", time.Hour)
	require.NoError(t, err)
	app := newWebhookApp(t, WebhookOptions{Notifier: notifier, Grants: signer})

	payload := completedEvent("evt_1", "a@b.com", "3")
	status, body := postEvent(t, app, payload, signedHeaders(payload, testWebhookSecret))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body)

	require.Equal(t, 1, notifier.count())
	f := notifier.calls[0]
	assert.Equal(t, "a@b.com", f.Recipient)
	assert.Equal(t, "Sample 3", f.TrackTitle)
	assert.Equal(t, "cs_test_evt_1", f.OrderRef)
	assert.Equal(t, time.Hour, f.ExpiresIn)
	assert.True(t, strings.HasPrefix(f.DownloadURL, testOrigin+"/api/download?"), f.DownloadURL)

	link, err := url.Parse(f.DownloadURL)
	require.NoError(t, err)
	assert.Equal(t, "3", link.Query().Get("track"))
	claims, err := signer.Verify(link.Query().Get("token"), "3")
	require.NoError(t, err)
	assert.Equal(t, "cs_test_evt_1", claims.OrderRef)
}

func TestWebhook_FallsBackToSourceLink(t *testing.T) {
	notifier := &fakeNotifier{}
	app := newWebhookApp(t, WebhookOptions{Notifier: notifier, SiteURL: "https://swiden.example/"})

	payload := completedEvent("evt_2", "a@b.com", "3")
	status, _ := postEvent(t, app, payload, signedHeaders(payload, testWebhookSecret))
	assert.Equal(t, fiber.StatusOK, status)

	require.Equal(t, 1, notifier.count())
	assert.Equal(t, "https://swiden.example/audio/sample3.mp3", notifier.calls[0].DownloadURL)
	assert.Zero(t, notifier.calls[0].ExpiresIn)
}

func TestWebhook_WrongSecretNeverFulfills(t *testing.T) {
	notifier := &fakeNotifier{}
	app := newWebhookApp(t, WebhookOptions{Notifier: notifier})

	payload := completedEvent("evt_3", "a@b.com", "3")
	status, body := postEvent(t, app, payload, signedHeaders(payload, "whsec_wrong"))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid signature", body)

	status, _ = postEvent(t, app, payload, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	assert.Zero(t, notifier.count())
}

func TestWebhook_NotConfigured(t *testing.T) {
	notifier := &fakeNotifier{}
	app := fiber.New()
	app.Post("/api/stripe/webhook", NewWebhookController(WebhookOptions{Notifier: notifier}).HandleStripeWebhook)

	payload := completedEvent("evt_4", "a@b.com", "3")
	status, body := postEvent(t, app, payload, signedHeaders(payload, testWebhookSecret))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Webhook not configured", body)
	assert.Zero(t, notifier.count())
}

func TestWebhook_IgnoresUnrecognizedEvent(t *testing.T) {
	notifier := &fakeNotifier{}
	app := newWebhookApp(t, WebhookOptions{Notifier: notifier})

	payload := `{"id":"evt_5","object":"event","type":"payment_intent.created","data":{"object":{"id":"pi_1","object":"payment_intent"}}}`
	status, body := postEvent(t, app, payload, signedHeaders(payload, testWebhookSecret))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body)
	assert.Zero(t, notifier.count())
}

func TestWebhook_SkipsIncompleteSession(t *testing.T) {
	notifier := &fakeNotifier{}
	app := newWebhookApp(t, WebhookOptions{Notifier: notifier})

	payload := completedEvent("evt_6", "", "3")
	status, _ := postEvent(t, app, payload, signedHeaders(payload, testWebhookSecret))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Zero(t, notifier.count())
}

func TestWebhook_FulfillmentErrorStillAcknowledged(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("resend returned 500")}
	app := newWebhookApp(t, WebhookOptions{Notifier: notifier})

	payload := completedEvent("evt_7", "a@b.com", "1")
	status, body := postEvent(t, app, payload, signedHeaders(payload, testWebhookSecret))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body)
	assert.Equal(t, 1, notifier.count())
}

// Without a ledger a redelivered event sends a second email.
func TestWebhook_DuplicateDeliveryWithoutLedger(t *testing.T) {
	notifier := &fakeNotifier{}
	app := newWebhookApp(t, WebhookOptions{Notifier: notifier})

	payload := completedEvent("evt_8", "a@b.com", "3")
	for i := 0; i < 2; i++ {
		status, _ := postEvent(t, app, payload, signedHeaders(payload, testWebhookSecret))
		require.Equal(t, fiber.StatusOK, status)
	}
	assert.Equal(t, 2, notifier.count())
}

func TestWebhook_DuplicateDeliveryWithLedger(t *testing.T) {
	notifier := &fakeNotifier{}
	app := newWebhookApp(t, WebhookOptions{Notifier: notifier, Ledger: &memoryLedger{}})

	payload := completedEvent("evt_9", "a@b.com", "3")
	for i := 0; i < 2; i++ {
		status, body := postEvent(t, app, payload, signedHeaders(payload, testWebhookSecret))
		require.Equal(t, fiber.StatusOK, status)
		require.Equal(t, "ok", body)
	}
	assert.Equal(t, 1, notifier.count())

	other := completedEvent("evt_10", "a@b.com", "3")
	status, _ := postEvent(t, app, other, signedHeaders(other, testWebhookSecret))
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2, notifier.count())
}

func TestWebhook_LedgerErrorDoesNotBlockFulfillment(t *testing.T) {
	notifier := &fakeNotifier{}
	app := newWebhookApp(t, WebhookOptions{Notifier: notifier, Ledger: &memoryLedger{err: errors.New("connection refused")}})

	payload := completedEvent("evt_11", "a@b.com", "2")
	status, _ := postEvent(t, app, payload, signedHeaders(payload, testWebhookSecret))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, notifier.count())
}

// A delivery whose email could not be sent is processed again on redelivery.
func TestWebhook_FailedFulfillmentIsRetriedWithLedger(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("resend returned 503")}
	app := newWebhookApp(t, WebhookOptions{Notifier: notifier, Ledger: &memoryLedger{}})

	payload := completedEvent("evt_12", "a@b.com", "3")
	status, _ := postEvent(t, app, payload, signedHeaders(payload, testWebhookSecret))
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, 1, notifier.count())

	notifier.setErr(nil)
	status, _ = postEvent(t, app, payload, signedHeaders(payload, testWebhookSecret))
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2, notifier.count())

	// once delivered the event stays claimed
	status, _ = postEvent(t, app, payload, signedHeaders(payload, testWebhookSecret))
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2, notifier.count())
}

func TestWebhook_UsesMetadataEmail(t *testing.T) {
	notifier := &fakeNotifier{}
	app := newWebhookApp(t, WebhookOptions{Notifier: notifier})

	payload := `{
		"id": "evt_13",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_meta",
			"object": "checkout.session",
			"payment_status": "paid",
			"metadata": {"trackId": "3", "email": "a@b.com", "src": "/audio/sample3.mp3"}
		}}
	}`
	status, body := postEvent(t, app, payload, signedHeaders(payload, testWebhookSecret))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body)

	require.Equal(t, 1, notifier.count())
	assert.Equal(t, "a@b.com", notifier.calls[0].Recipient)
	assert.Equal(t, "cs_meta", notifier.calls[0].OrderRef)
}
