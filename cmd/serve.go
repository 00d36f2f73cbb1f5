package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/AazainKhan/luminate-ai-sub002/api"
	"github.com/AazainKhan/luminate-ai-sub002/internal/app"
	"github.com/AazainKhan/luminate-ai-sub002/internal/config"
	"github.com/AazainKhan/luminate-ai-sub002/internal/log"
)

// runServe initializes the application and starts the HTTP API server.
func runServe(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	addr, err := parseServeAddr()
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting luminate API server", "version", Version, "course", cfg.CourseName)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	server := api.NewServer(a.Pipeline, a.Classifier, a.DBPool, logger)
	return server.Run(ctx, addr)
}
