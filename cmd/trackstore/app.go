package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/swiden/trackstore/app/controllers"
	"github.com/swiden/trackstore/internal/pkg/billing"
	"github.com/swiden/trackstore/internal/pkg/cache"
	"github.com/swiden/trackstore/internal/pkg/catalog"
	"github.com/swiden/trackstore/internal/pkg/config"
	"github.com/swiden/trackstore/internal/pkg/fulfillment"
	"github.com/swiden/trackstore/internal/pkg/mail"
	"github.com/swiden/trackstore/internal/pkg/metrics/counter"
	"github.com/swiden/trackstore/internal/pkg/router"
	"github.com/swiden/trackstore/internal/pkg/security"
	"github.com/swiden/trackstore/internal/pkg/storage"
)

// NewApplication wires every component from cfg. The returned cleanup
// releases the cache connections.
func NewApplication(ctx context.Context, cfg *config.Config) (*fiber.App, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	cat := catalog.Default()
	ids := cat.IDs()
	log.Infof("[Catalog] %d tracks available: %v", len(ids), ids)

	store, err := newAssetStore(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}

	var gateway billing.Gateway
	if g, err := billing.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.Timeout); err != nil {
		log.Warnf("[Checkout] %v, checkout requests will fail", err)
	} else {
		gateway = g
	}

	var parser controllers.EventParser
	if v, err := billing.NewWebhookVerifier(cfg.Stripe.WebhookSecret); err != nil {
		log.Warnf("[Webhook] %v, deliveries will be answered with 500", err)
	} else {
		parser = v
	}

	var (
		issuer   controllers.GrantIssuer
		verifier controllers.GrantVerifier
	)
	if signer, err := security.NewDownloadSigner(cfg.Download.Secret, cfg.Download.TTL); err != nil {
		log.Warn("[Download] DOWNLOAD_TOKEN_SECRET not set, downloads accept any token")
	} else {
		issuer, verifier = signer, signer
	}

	var (
		ledger         billing.EventLedger
		downloads      counter.DownloadCounter
		stats          counter.DownloadStats
		limiterStorage fiber.Storage
	)
	if cfg.CacheEnabled() {
		client, err := cache.NewClient(ctx, cfg.Cache)
		if err != nil {
			log.Warnf("[Cache] %v, continuing without cache", err)
		} else {
			closers = append(closers, func() { _ = client.Close() })
			if cfg.Webhook.DedupEnabled {
				ledger = billing.NewRedisEventLedger(client, cfg.Webhook.DedupTTL)
				log.Infof("[Webhook] Deduplicating deliveries for %s", cfg.Webhook.DedupTTL)
			}
			rc := counter.NewRedisCounter(client)
			downloads, stats = rc, rc
			ls := cache.NewLimiterStorage(cfg.Cache)
			closers = append(closers, func() { _ = ls.Close() })
			limiterStorage = ls
		}
	}

	mailer := mail.NewFromConfig(cfg.Mail)
	log.Infof("[Mail] Using %s transport", mailer.Name())
	notifier, err := fulfillment.NewService(mailer)
	if err != nil {
		return nil, cleanup, err
	}

	app := fiber.New(newFiberConfig(cfg))

	// recovery and logging
	app.Use(recover.New(), logger.New())

	router.InstallRouter(app, router.Deps{
		Config:   cfg,
		Checkout: controllers.NewCheckoutController(gateway, cat, cfg.SiteURL),
		Webhook: controllers.NewWebhookController(controllers.WebhookOptions{
			Parser:   parser,
			Ledger:   ledger,
			Notifier: notifier,
			Catalog:  cat,
			Grants:   issuer,
			SiteURL:  cfg.SiteURL,
			Timeout:  cfg.Fulfillment.Timeout,
		}),
		Download: newDownloadController(cat, store, verifier, downloads),
		Tracks:   controllers.NewTrackController(cat, store),
		Health: controllers.HealthStatus{
			Stripe:         gateway != nil,
			Webhook:        parser != nil,
			Mail:           mailer.Name(),
			Storage:        store.Backend(),
			DownloadTokens: verifier != nil,
			Dedup:          ledger != nil,
		},
		Catalog:        cat,
		LimiterStorage: limiterStorage,
		DownloadStats:  stats,
	})

	return app, cleanup, nil
}

// newFiberConfig only believes cfg.ProxyHeader on connections from
// cfg.TrustedProxies; with none configured the peer address is used.
func newFiberConfig(cfg *config.Config) fiber.Config {
	return fiber.Config{
		AppName:                 "swiden-trackstore",
		BodyLimit:               1 << 20,
		ReadTimeout:             15 * time.Second,
		WriteTimeout:            2 * time.Minute,
		IdleTimeout:             60 * time.Second,
		ProxyHeader:             cfg.ProxyHeader,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          cfg.TrustedProxies,
		EnableIPValidation:      true,
	}
}

func newAssetStore(ctx context.Context, cfg *config.Config) (storage.AssetStore, error) {
	if cfg.S3.Enabled {
		return storage.NewS3Store(ctx, cfg.S3)
	}
	log.Infof("[Storage] Serving tracks from %s", cfg.AssetDir)
	return storage.NewLocalStore(cfg.AssetDir), nil
}

func newDownloadController(cat *catalog.Catalog, store storage.AssetStore, verifier controllers.GrantVerifier, downloads counter.DownloadCounter) *controllers.DownloadController {
	dc := controllers.NewDownloadController(cat, store, verifier)
	if downloads != nil {
		dc.WithCounter(downloads)
	}
	return dc
}
