package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasktrack/tasktrack-api/internal/platform/metrics"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

// Janitor purges idempotency records past their retention window. Purging
// is a plain time-based delete; a stranded reservation also ages out this
// way, which is what eventually unblocks a key wedged by a crash between
// reservation and completion.
type Janitor struct {
	store     store.IdempotencyStore
	retention time.Duration
	logger    *slog.Logger
}

// NewJanitor creates a new Janitor with the given retention window.
func NewJanitor(idempotencyStore store.IdempotencyStore, retention time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		store:     idempotencyStore,
		retention: retention,
		logger:    logger,
	}
}

// RunOnce deletes all records older than the retention window.
func (j *Janitor) RunOnce(ctx context.Context) error {
	purged, err := j.store.DeleteExpired(ctx, j.retention)
	if err != nil {
		return fmt.Errorf("failed to purge expired idempotency records: %w", err)
	}

	metrics.IdempotencyRecordsPurged.Add(float64(purged))

	if purged > 0 {
		j.logger.Info("purged expired idempotency records",
			"count", purged,
			"retention", j.retention)
	}

	return nil
}
