package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/shopfront-dev/shopfront/internal/config"
	"github.com/shopfront-dev/shopfront/internal/logger"
	"github.com/shopfront-dev/shopfront/internal/revocations"
	"github.com/shopfront-dev/shopfront/internal/tasks"
	"github.com/shopfront-dev/shopfront/internal/workers"
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

	log.Info().Str("version", version).Msg("Starting shopfront Asynq worker")

	if cfg.Store.Driver == "memory" {
		log.Warn().Msg("SESSION_STORE=memory lives inside the gateway process - the worker has nothing to purge")
	}

	registry, err := revocations.Open(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open revocation registry")
	}
	defer registry.Close()

	// Initialize Asynq client (used by the scheduler)
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})
	defer asynqClient.Close()

	// Initialize Asynq server
	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr: cfg.Redis.Address,
		},
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				tasks.QueueDefault: 3,
				tasks.QueueLow:     1,
			},
			Logger: &asynqLogger{log: log},
		},
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePurgeRevocations, func(ctx context.Context, t *asynq.Task) error {
		return workers.HandlePurgeRevocations(ctx, t, registry, log)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if next := workers.NextPurgeTime(cfg.Worker.PurgeSchedule, time.Now()); next != nil {
		log.Info().Str("schedule", cfg.Worker.PurgeSchedule).Time("next_purge_at", *next).Msg("Revocation purge schedule loaded")
	} else {
		log.Error().Str("schedule", cfg.Worker.PurgeSchedule).Msg("Invalid purge schedule, no purges will be enqueued")
	}

	go func() {
		if err := workers.StartPurgeScheduler(ctx, asynqClient, cfg.Worker.PurgeSchedule, log); err != nil {
			log.Error().Err(err).Msg("Purge scheduler stopped")
		}
	}()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Info().Msg("Starting Asynq worker server...")
		if err := asynqServer.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("Asynq worker server failed")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")
	cancel()

	asynqServer.Shutdown()

	log.Info().Msg("Worker shutdown complete")
}

// asynqLogger is a wrapper to make zerolog compatible with Asynq's logger interface
type asynqLogger struct {
	log zerolog.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.log.Debug().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.log.Info().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.log.Warn().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.log.Error().Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.log.Fatal().Msg(fmt.Sprint(args...))
}
