// Package delivery implements the background worker that drains the
// delivery queue and sends task notifications.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasktrack/tasktrack-api/internal/domain"
	"github.com/tasktrack/tasktrack-api/internal/platform/metrics"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

// ExecutionOutcome is the result of a single worker iteration.
type ExecutionOutcome int

const (
	// TaskCompleted means one queue row was processed and removed.
	TaskCompleted ExecutionOutcome = iota

	// EmptyQueue means no queue row was available.
	EmptyQueue
)

// Notifier sends one notification email. Implemented by mailer.Client.
type Notifier interface {
	Send(ctx context.Context, to domain.Email, subject, htmlBody, textBody string) error
}

// Config holds the worker's loop timing.
type Config struct {
	// PollInterval is how long to sleep after finding the queue empty.
	PollInterval time.Duration

	// ErrorRetryInterval is how long to sleep after an unexpected error.
	ErrorRetryInterval time.Duration
}

// DefaultConfig returns a Config with the standard intervals.
func DefaultConfig() Config {
	return Config{
		PollInterval:       10 * time.Second,
		ErrorRetryInterval: 3 * time.Second,
	}
}

// Worker drains the delivery queue one row at a time. Multiple Worker
// instances may run concurrently against the same store; the queue's
// skip-locked read is the only coordination between them.
type Worker struct {
	queue    store.DeliveryQueueStore
	tasks    store.TaskStore
	notifier Notifier
	config   Config
	logger   *slog.Logger
}

// NewWorker creates a new Worker with the given dependencies.
func NewWorker(
	queue store.DeliveryQueueStore,
	tasks store.TaskStore,
	notifier Notifier,
	config Config,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		queue:    queue,
		tasks:    tasks,
		notifier: notifier,
		config:   config,
		logger:   logger,
	}
}

// TryExecuteDelivery processes at most one queue row: claim it with a
// skip-locked read, attempt the send, then remove the row and commit.
//
// The row is removed whether or not the send succeeded. Delivery is
// best-effort: a failed send is logged and not requeued. An invalid stored
// recipient is never retried either, since it can never succeed.
func (w *Worker) TryExecuteDelivery(ctx context.Context) (ExecutionOutcome, error) {
	claimed, err := w.queue.DequeueOne(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.EmptyQueuePolls.Inc()
			return EmptyQueue, nil
		}
		return EmptyQueue, fmt.Errorf("failed to dequeue delivery: %w", err)
	}

	entry := claimed.Entry()
	log := w.logger.With(
		"task_id", entry.TaskID,
		"recipient", entry.RecipientEmail)

	email, err := domain.ParseEmail(entry.RecipientEmail)
	if err != nil {
		log.Error("skipping a confirmed profile, their stored contact details are invalid",
			"error", err)
		metrics.DeliveriesSkipped.Inc()
	} else {
		task, err := w.tasks.GetByID(ctx, entry.TaskID)
		if err != nil {
			// A queue row always references an existing task; release the
			// claim so the row survives this unexpected failure.
			if rbErr := claimed.Release(); rbErr != nil {
				log.Error("failed to release claimed delivery", "error", rbErr)
			}
			return EmptyQueue, fmt.Errorf("failed to fetch task for delivery: %w", err)
		}

		subject := fmt.Sprintf("New task: %s", task.TaskType)
		metrics.DeliveriesAttempted.Inc()
		if err := w.notifier.Send(ctx, email, subject, task.SourceFile, task.SourceFile); err != nil {
			log.Error("failed to deliver notification to a confirmed profile, skipping",
				"error", err)
			metrics.DeliveriesFailed.Inc()
		}
	}

	if err := claimed.Finish(ctx); err != nil {
		return EmptyQueue, fmt.Errorf("failed to finish delivery: %w", err)
	}

	return TaskCompleted, nil
}

// Run executes the worker loop until ctx is cancelled: process rows back
// to back while the queue has backlog, sleep PollInterval when it is empty,
// and sleep ErrorRetryInterval after an unexpected error.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("delivery worker started",
		"poll_interval", w.config.PollInterval,
		"error_retry_interval", w.config.ErrorRetryInterval)

	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("delivery worker stopping", "reason", err)
			return err
		}

		outcome, err := w.TryExecuteDelivery(ctx)
		switch {
		case err != nil:
			w.logger.Error("delivery attempt failed", "error", err)
			if !w.sleep(ctx, w.config.ErrorRetryInterval) {
				return ctx.Err()
			}
		case outcome == EmptyQueue:
			if !w.sleep(ctx, w.config.PollInterval) {
				return ctx.Err()
			}
		default:
			// TaskCompleted: drain the backlog without delay.
		}
	}
}

// sleep waits for d or until ctx is cancelled. Returns false when the
// context ended the wait.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
