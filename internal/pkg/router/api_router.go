package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/swiden/trackstore/app/controllers"
	"github.com/swiden/trackstore/internal/pkg/constants"
)

type ApiRouter struct {
	deps Deps
}

func NewApiRouter(deps Deps) *ApiRouter {
	return &ApiRouter{deps: deps}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIPrefix, cors.New(cors.Config{
		AllowOrigins: h.allowedOrigins(),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}), h.newLimiter())

	api.Get("/health", controllers.HandleHealth(h.deps.Health))
	api.Get("/tracks", h.deps.Tracks.HandleListTracks)
	api.Post("/checkout", h.deps.Checkout.HandleCreateCheckout)
	api.Get("/download", h.deps.Download.HandleDownload)
	api.Post("/stripe/webhook", h.deps.Webhook.HandleStripeWebhook)
}

func (h ApiRouter) allowedOrigins() string {
	if h.deps.Config != nil && h.deps.Config.SiteURL != "" {
		return h.deps.Config.SiteURL
	}
	return "*"
}

// newLimiter throttles per client IP. Gateway callbacks and health probes
// are never limited.
func (h ApiRouter) newLimiter() fiber.Handler {
	limit, window := 30, time.Minute
	if cfg := h.deps.Config; cfg != nil {
		if cfg.RateLimit.Max > 0 {
			limit = cfg.RateLimit.Max
		}
		if cfg.RateLimit.Window > 0 {
			window = cfg.RateLimit.Window
		}
	}

	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: window,
		Storage:    h.deps.LimiterStorage,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == constants.WebhookRoute || c.Path() == constants.HealthRoute
		},
		KeyGenerator: controllers.ClientIP,
		LimitReached: func(c *fiber.Ctx) error {
			log.Warnf("[RateLimit] %s exceeded %d requests per %s on %s", controllers.ClientIP(c), limit, window, c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
		},
	})
}
