package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AazainKhan/luminate-ai-sub002/internal/app"
	"github.com/AazainKhan/luminate-ai-sub002/internal/config"
	"github.com/AazainKhan/luminate-ai-sub002/internal/log"
)

// runAsk runs one query through the pipeline and prints the result.
func runAsk(logger log.Logger) error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: luminate ask <query>")
	}
	query := strings.Join(os.Args[2:], " ")

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

	out, err := a.Pipeline.Ask(ctx, query)
	if err != nil {
		return fmt.Errorf("processing query: %w", err)
	}

	fmt.Printf("Mode: %s (confidence %.2f)\n", out.Mode, out.Confidence)
	if !out.Approved {
		fmt.Printf("Rejected: %s\n", out.Reason)
		return nil
	}

	fmt.Println()
	fmt.Println(out.Answer)
	if len(out.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, src := range out.Sources {
			fmt.Printf("  - %s (%s, similarity %.2f)\n", src.ID, src.SourceType, src.Similarity)
		}
	}
	return nil
}
