package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studio_server/config"
	"studio_server/internal/bootstrap"
	"studio_server/pkg/logger"

	"github.com/joho/godotenv"
)

// shutdownTimeout bounds graceful shutdown before the process gives up.
const shutdownTimeout = 30 * time.Second

func main() {
	// .env is optional, local development only
	_ = godotenv.Load()

	logger.Init(logger.Config{
		Level:   logger.ParseLevel(os.Getenv("LOG_LEVEL")),
		Service: "studio",
	})

	var mode string
	flag.StringVar(&mode, "mode", envOr("RUN_MODE", "all"), "process role: api, worker or all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config: %v", err)
	}

	logger.Info("studio starting, mode=%s env=%s", mode, cfg.Environment)

	// The shutdown context flips on SIGINT/SIGTERM; both roles watch it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "api":
		runAPI(ctx, cfg)
	case "worker":
		runWorker(ctx, cfg)
	case "all":
		go runWorker(ctx, cfg)
		runAPI(ctx, cfg)
	default:
		logger.Fatal("unknown mode %q, expected api, worker or all", mode)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runAPI(ctx context.Context, cfg *config.Config) {
	app, cleanup, err := bootstrap.NewAPI(cfg)
	if err != nil {
		logger.Fatal("api bootstrap: %v", err)
	}
	defer cleanup()

	go func() {
		<-ctx.Done()
		logger.Info("api: shutting down (up to %v)", shutdownTimeout)

		done := make(chan error, 1)
		go func() { done <- app.Shutdown() }()

		select {
		case err := <-done:
			if err != nil {
				logger.Error("api: shutdown error: %v", err)
			}
		case <-time.After(shutdownTimeout):
			logger.Warn("api: shutdown timed out, exiting")
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("api: listening on %s", addr)
	if err := app.Listen(addr); err != nil {
		logger.Fatal("api: %v", err)
	}
}

func runWorker(ctx context.Context, cfg *config.Config) {
	w, cleanup, err := bootstrap.NewWorker(cfg)
	if err != nil {
		logger.Fatal("worker bootstrap: %v", err)
	}
	defer cleanup()

	go func() {
		<-ctx.Done()
		logger.Info("worker: shutting down (up to %v)", shutdownTimeout)

		done := make(chan struct{})
		go func() {
			w.Stop()
			close(done)
		}()

		select {
		case <-done:
			logger.Info("worker: stopped")
		case <-time.After(shutdownTimeout):
			logger.Warn("worker: shutdown timed out, exiting")
			os.Exit(1)
		}
	}()

	logger.Info("worker: starting")
	w.Start()
}
