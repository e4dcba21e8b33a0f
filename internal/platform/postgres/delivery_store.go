package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tasktrack/tasktrack-api/internal/platform/logger"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

// PostgresDeliveryQueueStore implements the store.DeliveryQueueStore
// interface using PostgreSQL.
type PostgresDeliveryQueueStore struct {
	// db is the connection pool used to open claiming transactions.
	// Nil when the store is bound to an existing transaction.
	db   *sql.DB
	dbtx store.DBTX
}

// NewPostgresDeliveryQueueStore creates a new PostgresDeliveryQueueStore.
func NewPostgresDeliveryQueueStore(db *sql.DB) *PostgresDeliveryQueueStore {
	return &PostgresDeliveryQueueStore{
		db:   db,
		dbtx: db,
	}
}

// Ensure PostgresDeliveryQueueStore implements store.DeliveryQueueStore
var _ store.DeliveryQueueStore = (*PostgresDeliveryQueueStore)(nil)

// WithTx returns a new DeliveryQueueStore bound to the provided transaction.
func (s *PostgresDeliveryQueueStore) WithTx(tx *sql.Tx) store.DeliveryQueueStore {
	return &PostgresDeliveryQueueStore{dbtx: tx}
}

// Enqueue implements store.DeliveryQueueStore.Enqueue
func (s *PostgresDeliveryQueueStore) Enqueue(ctx context.Context, taskID uuid.UUID, recipients []string) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO delivery_queue (task_id, recipient_email)
		VALUES ($1, $2)
	`

	for _, recipient := range recipients {
		if _, err := s.dbtx.ExecContext(ctx, query, taskID, recipient); err != nil {
			log.Error("failed to enqueue delivery",
				"task_id", taskID,
				"error", err)
			return MapError(err)
		}
	}

	return nil
}

// DequeueOne implements store.DeliveryQueueStore.DequeueOne. It opens a
// transaction and locks a single queue row with a skip-locked read, which
// is the sole mutual-exclusion mechanism between concurrent workers: rows
// locked by a peer's open transaction are simply not considered.
func (s *PostgresDeliveryQueueStore) DequeueOne(ctx context.Context) (store.ClaimedDelivery, error) {
	if s.db == nil {
		return nil, fmt.Errorf("dequeue requires a store that owns its connection pool")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin claiming transaction: %w", err)
	}

	var entry store.DeliveryQueueEntry
	err = tx.QueryRowContext(ctx, `
		SELECT task_id, recipient_email
		FROM delivery_queue
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	`).Scan(&entry.TaskID, &entry.RecipientEmail)
	if err != nil {
		// Roll back before reporting; an empty queue must not leave a
		// transaction open.
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.FromContext(ctx).Error("failed to roll back claiming transaction",
				"error", rbErr)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, MapError(err)
	}

	return &claimedDelivery{tx: tx, entry: entry}, nil
}

// CountByTask implements store.DeliveryQueueStore.CountByTask
func (s *PostgresDeliveryQueueStore) CountByTask(ctx context.Context, taskID uuid.UUID) (int, error) {
	var count int
	err := s.dbtx.QueryRowContext(ctx,
		`SELECT count(*) FROM delivery_queue WHERE task_id = $1`, taskID).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// claimedDelivery is a queue row locked by its claiming transaction.
type claimedDelivery struct {
	tx    *sql.Tx
	entry store.DeliveryQueueEntry
}

// Entry implements store.ClaimedDelivery.Entry
func (c *claimedDelivery) Entry() store.DeliveryQueueEntry {
	return c.entry
}

// Finish implements store.ClaimedDelivery.Finish
func (c *claimedDelivery) Finish(ctx context.Context) error {
	_, err := c.tx.ExecContext(ctx, `
		DELETE FROM delivery_queue
		WHERE task_id = $1
		AND recipient_email = $2
	`, c.entry.TaskID, c.entry.RecipientEmail)
	if err != nil {
		if rbErr := c.tx.Rollback(); rbErr != nil {
			logger.FromContext(ctx).Error("failed to roll back claiming transaction",
				"error", rbErr)
		}
		return MapError(err)
	}

	if err := c.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit claiming transaction: %w", err)
	}

	return nil
}

// Release implements store.ClaimedDelivery.Release
func (c *claimedDelivery) Release() error {
	return c.tx.Rollback()
}
