package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/shopfront-dev/shopfront/internal/metrics"
	"github.com/shopfront-dev/shopfront/internal/revocations"
	"github.com/shopfront-dev/shopfront/internal/tasks"
)

// HandlePurgeRevocations removes revocation entries whose tokens have expired
func HandlePurgeRevocations(ctx context.Context, t *asynq.Task, registry revocations.Registry, logger zerolog.Logger) error {
	payload, err := tasks.ParsePurgePayload(t)
	if err != nil {
		// Retrying cannot fix a bad payload
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	start := time.Now()
	removed, err := registry.Purge(ctx, start)
	if err != nil {
		logger.Error().Err(err).Time("slot", payload.ScheduledAt).Msg("Revocation purge failed")
		return err
	}
	metrics.PurgedRevocations.Add(float64(removed))

	logger.Info().
		Int64("removed", removed).
		Time("slot", payload.ScheduledAt).
		Dur("duration", time.Since(start)).
		Msg("Revocation purge completed")
	return nil
}
