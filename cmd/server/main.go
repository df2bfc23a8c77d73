package main

import (
	"fmt"
	"os"

	"github.com/shopfront-dev/shopfront/internal/config"
	"github.com/shopfront-dev/shopfront/internal/logger"
	"github.com/shopfront-dev/shopfront/internal/revocations"
	"github.com/shopfront-dev/shopfront/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	registry, err := revocations.Open(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store.Driver).Msg("Failed to open revocation registry")
	}
	defer func() {
		if err := registry.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing revocation registry")
		}
	}()

	srv := server.New(cfg, log, registry, version)

	log.Info().Str("version", version).Str("env", cfg.Server.Env).Msg("Starting shopfront gateway...")

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Error().Err(err).Msg("Server failed")
		os.Exit(1)
	}
}
