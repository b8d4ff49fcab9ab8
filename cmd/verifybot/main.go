package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/VerifyBot/internal/pkg/config"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/env"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/logging"
	"github.com/ManuelReschke/VerifyBot/internal/pkg/metrics"
)

func main() {
	env.SetupEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	closeLog, err := logging.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLog()

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApplication(ctx, cfg)
	if err != nil {
		log.Fatalf("[App] Startup failed: %v", err)
	}

	runErr := app.Run(ctx)
	if err := app.Close(); err != nil {
		log.Errorf("[App] Shutdown: %v", err)
	}
	if runErr != nil {
		log.Fatalf("[App] %v", runErr)
	}
}
