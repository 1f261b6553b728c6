package router

import (
	"os"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"github.com/swiden/trackstore/app/controllers"
	"github.com/swiden/trackstore/internal/pkg/constants"
)

// HttpRouter mounts everything outside /api: previews, docs and metrics.
type HttpRouter struct {
	deps Deps
}

func NewHttpRouter(deps Deps) *HttpRouter {
	return &HttpRouter{deps: deps}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	cfg := h.deps.Config
	if cfg == nil {
		return
	}

	// static previews
	if cfg.AssetDir != "" && !cfg.S3.Enabled {
		app.Static(constants.AudioRoute, cfg.AssetDir, fiber.Static{
			CacheDuration: 15 * time.Second,
			ByteRange:     true,
			MaxAge:        3600,
		})
	}

	// fiber metrics
	if cfg.Metrics.User != "" && cfg.Metrics.Password != "" {
		auth := basicauth.New(basicauth.Config{
			Users: map[string]string{cfg.Metrics.User: cfg.Metrics.Password},
		})
		app.Get(constants.MetricsRoute, auth, monitor.New(monitor.Config{Title: "Swiden trackstore"}))
		if h.deps.DownloadStats != nil && h.deps.Catalog != nil {
			app.Get(constants.StatsRoute, auth, controllers.HandleDownloadStats(h.deps.DownloadStats, h.deps.Catalog))
		}
	}

	// SWAGGER / OPENAPI
	if err := LoadAPIDocs(cfg.DocsFile); err != nil {
		log.Warnf("[Docs] API docs not mounted: %v", err)
		return
	}
	app.Use(swagger.New(swagger.Config{
		BasePath: constants.DocsBasePath,
		FilePath: cfg.DocsFile,
		Path:     constants.DocsVersion,
		Title:    "Swiden trackstore API",
	}))
}

// LoadAPIDocs checks that path holds a valid OpenAPI 3 document.
func LoadAPIDocs(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return err
	}
	return doc.Validate(loader.Context)
}
