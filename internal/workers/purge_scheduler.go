package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/shopfront-dev/shopfront/internal/tasks"
)

// Enqueuer is the part of *asynq.Client the scheduler needs
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// StartPurgeScheduler enqueues a revocation purge on every tick of the cron schedule
// until ctx is cancelled. One purge is enqueued immediately on startup.
func StartPurgeScheduler(ctx context.Context, client Enqueuer, cronExpr string, logger zerolog.Logger) error {
	schedule, err := parseSchedule(cronExpr)
	if err != nil {
		return err
	}

	enqueuePurge(ctx, client, time.Now(), logger)

	for {
		next := schedule.Next(time.Now())
		logger.Debug().Time("next_purge_at", next).Msg("Next revocation purge scheduled")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			enqueuePurge(ctx, client, next, logger)
		}
	}
}

func enqueuePurge(ctx context.Context, client Enqueuer, slot time.Time, logger zerolog.Logger) {
	task, err := tasks.NewPurgeRevocationsTask(slot)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create purge task")
		return
	}

	info, err := client.EnqueueContext(ctx, task,
		asynq.Queue(tasks.QueueLow),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		// Several workers may share one Redis; only the first enqueue per slot wins
		asynq.TaskID(purgeTaskID(slot)),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			logger.Debug().Time("slot", slot).Msg("Purge already enqueued for this slot")
			return
		}
		logger.Error().Err(err).Msg("Failed to enqueue purge task")
		return
	}

	logger.Info().Str("task_id", info.ID).Time("slot", slot).Msg("Revocation purge enqueued")
}

func purgeTaskID(slot time.Time) string {
	return fmt.Sprintf("%s:%d", tasks.TypePurgeRevocations, slot.Truncate(time.Minute).Unix())
}

// parseSchedule parses a standard 5-field cron expression (minute hour day-of-month month day-of-week)
func parseSchedule(cronExpr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", cronExpr, err)
	}
	return schedule, nil
}

// NextPurgeTime calculates the next purge slot after from
func NextPurgeTime(cronExpr string, from time.Time) *time.Time {
	if cronExpr == "" {
		return nil
	}
	schedule, err := parseSchedule(cronExpr)
	if err != nil {
		return nil
	}
	next := schedule.Next(from)
	return &next
}
