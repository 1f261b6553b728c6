package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/swiden/trackstore/app/controllers"
	"github.com/swiden/trackstore/internal/pkg/catalog"
	"github.com/swiden/trackstore/internal/pkg/config"
	"github.com/swiden/trackstore/internal/pkg/metrics/counter"
)

// Router registers a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Deps carries the constructed controllers into the routers.
type Deps struct {
	Config   *config.Config
	Checkout *controllers.CheckoutController
	Webhook  *controllers.WebhookController
	Download *controllers.DownloadController
	Tracks   *controllers.TrackController
	Health   controllers.HealthStatus
	Catalog  *catalog.Catalog
	// LimiterStorage is optional; nil keeps limiter counters in memory.
	LimiterStorage fiber.Storage
	// DownloadStats is optional; nil leaves the stats route unmounted.
	DownloadStats counter.DownloadStats
}

func InstallRouter(app *fiber.App, deps Deps) {
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
