package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

var ErrMissingParameter = errors.New("missing parameter")

// responses returned to clients; detail stays in the log
const (
	msgMissingTrackID       = "Missing trackId"
	msgInvalidBody          = "Invalid request body"
	msgCheckoutFailed       = "Checkout session creation failed"
	msgWebhookNotConfigured = "Webhook not configured"
	msgMissingSignature     = "Missing Stripe-Signature header"
	msgInvalidSignature     = "Invalid signature"
	msgDownloadParams       = "Token and track ID are required"
	msgTrackNotFound        = "Track not found"
	msgInvalidToken         = "Invalid or expired download token"
	msgFileUnavailable      = "File not found or cannot be read"
)

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// publicOrigin returns siteURL when configured, otherwise scheme and host of
// the inbound request. The fallback trusts the Host header.
func publicOrigin(c *fiber.Ctx, siteURL string) string {
	if siteURL = strings.TrimRight(strings.TrimSpace(siteURL), "/"); siteURL != "" {
		return siteURL
	}
	return c.BaseURL()
}

// ClientIP is the caller address. Forwarding headers count only when the
// app is configured with a ProxyHeader and the peer is a trusted proxy.
// The result is copied since the limiter keeps it as a map key.
func ClientIP(c *fiber.Ctx) string {
	return utils.CopyString(strings.TrimPrefix(c.IP(), "::ffff:"))
}
