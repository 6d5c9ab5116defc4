package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/quillhq/promptforge/pkg/config"
)

// loadConfig loads .env from configDir (missing file is not fatal) then
// initializes promptforge's configuration, mirroring the teacher
// server's config-dir + dotenv bootstrap.
func loadConfig(ctx context.Context, configDir string) (*config.Config, error) {
	envPath := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	}

	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("initialize configuration: %w", err)
	}
	return cfg, nil
}
