package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"SocialPulse/internal/app"
	"SocialPulse/internal/config"
	"SocialPulse/internal/logging"
)

// Exit codes: configuration or wiring failure is fatal; a run that finishes
// with partial per-item failures still exits 0.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Run(context.Background()); err != nil {
		logger.Error("run aborted", "error", err)
		os.Exit(1)
	}
}
