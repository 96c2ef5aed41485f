// Package main is the entry point for the MannSakha wellness backend.
//
// main stays minimal: read configuration, build the logger, construct the
// upstream provider, hand everything to internal/server. All actual logic
// lives in the imported packages.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mannsakha/mannsakha/internal/config"
	"github.com/mannsakha/mannsakha/internal/llm"
	"github.com/mannsakha/mannsakha/internal/llm/gemini"
	"github.com/mannsakha/mannsakha/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Ensure the database directory exists (like `mkdir -p`).
	if dbDir := filepath.Dir(cfg.DBPath); dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// The Gemini provider is optional - without a key the server starts
	// and /api/gemini answers with a configuration error instead.
	var provider llm.Provider
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set - /api/gemini will return errors")
	} else {
		client, err := gemini.New(context.Background(), gemini.Config{APIKey: cfg.GeminiAPIKey})
		if err != nil {
			logger.Error("failed to create Gemini client", slog.String("error", err.Error()))
			os.Exit(1)
		}
		provider = client
	}

	srv, err := server.New(cfg, logger, provider)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
