package controllers

import "github.com/gofiber/fiber/v2"

// HealthStatus lists which backends are configured. It carries no secrets.
type HealthStatus struct {
	Stripe         bool   `json:"stripe"`
	Webhook        bool   `json:"webhook"`
	Mail           string `json:"mail"`
	Storage        string `json:"storage"`
	DownloadTokens bool   `json:"downloadTokens"`
	Dedup          bool   `json:"dedup"`
}

func HandleHealth(status HealthStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":       "ok",
			"integrations": status,
		})
	}
}
