// Package cmd provides the luminate CLI commands.
//
// Commands:
//   - serve: HTTP API server for the governed tutoring pipeline
//   - ask: run one query from the command line
//   - index: index a course export directory into the knowledge store
//
// All commands handle SIGINT/SIGTERM through context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/AazainKhan/luminate-ai-sub002/internal/log"
)

// Execute is the main entry point for the luminate CLI.
func Execute() error {
	logger := log.New(log.Config{
		Level: levelFromEnv(),
		JSON:  os.Getenv("LUMINATE_LOG_JSON") != "",
	})

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe(logger)
	case "ask":
		return runAsk(logger)
	case "index":
		return runIndex(logger)
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func levelFromEnv() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("luminate - governed tutoring assistant for university courses")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  luminate serve [addr]   Start HTTP API server (default: 127.0.0.1:3400)")
	fmt.Println("  luminate ask <query>    Ask one question from the command line")
	fmt.Println("  luminate index <dir>    Index a course export directory")
	fmt.Println("  luminate --version      Show version information")
	fmt.Println("  luminate --help         Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY      Required: Gemini API key")
	fmt.Println("  DATABASE_URL        Optional: PostgreSQL connection URL")
	fmt.Println("  LUMINATE_COURSE     Optional: course name override")
	fmt.Println("  DEBUG               Optional: enable debug logging")
}
