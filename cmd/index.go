package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AazainKhan/luminate-ai-sub002/internal/app"
	"github.com/AazainKhan/luminate-ai-sub002/internal/config"
	"github.com/AazainKhan/luminate-ai-sub002/internal/log"
)

// runIndex indexes a course export directory into the knowledge store.
func runIndex(logger log.Logger) error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: luminate index <directory>")
	}
	dir := os.Args[2]

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("checking directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	stats, err := a.Indexer.IndexFS(ctx, os.DirFS(dir))
	if err != nil {
		return fmt.Errorf("indexing %s: %w", dir, err)
	}

	fmt.Printf("Indexed %d files (%d chunks, %d skipped)\n", stats.Files, stats.Chunks, stats.Skipped)

	total, err := a.Store.Count(ctx, nil)
	if err == nil {
		fmt.Printf("Knowledge store now holds %d documents\n", total)
	}
	return nil
}
