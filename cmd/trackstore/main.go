package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/swiden/trackstore/internal/pkg/config"
	"github.com/swiden/trackstore/internal/pkg/env"
)

const shutdownTimeout = 30 * time.Second

func main() {
	envFile := env.SetupEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Config] %v", err)
	}
	log.SetLevel(parseLogLevel(cfg.LogLevel))
	if envFile != "" {
		log.Infof("[Config] Loaded %s", envFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := NewApplication(ctx, cfg)
	if err != nil {
		log.Fatalf("[Startup] %v", err)
	}
	defer cleanup()

	go func() {
		if err := app.Listen(cfg.Addr()); err != nil {
			log.Errorf("[Server] %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("[Server] Shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Errorf("[Server] Shutdown: %v", err)
	}
}

func parseLogLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
