package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Drops revocation entries whose tokens have expired
	TypePurgeRevocations = "revocations:purge"
)

// Queue names, weighted in the worker config
const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// PurgePayload is the payload of a revocation purge
type PurgePayload struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// NewPurgeRevocationsTask creates a purge task for the given schedule slot
func NewPurgeRevocationsTask(scheduledAt time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(PurgePayload{
		ScheduledAt: scheduledAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypePurgeRevocations, payload), nil
}

// ParsePurgePayload parses task payload from Asynq task
func ParsePurgePayload(task *asynq.Task) (PurgePayload, error) {
	var payload PurgePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
