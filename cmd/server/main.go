// Package main implements the entry point for the vocab API server, which
// manages word collections, spaced review progress, and LLM-generated
// exams.
package main

import (
	"fmt"
	"log"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/mquell/vocab-api/internal/config"
	"github.com/mquell/vocab-api/internal/platform/logger"
)

func main() {
	// Load .env if present; real environments set variables directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.cleanup()

	if err := app.run(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}

// initializeApp loads configuration, sets up logging, and wires the
// application components.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	app, err := newApplication(cfg, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to build application: %w", err)
	}

	return app, nil
}
