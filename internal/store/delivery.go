package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// DeliveryQueueEntry is one pending notification: a (task, recipient) pair
// whose presence in the queue means delivery has not been confirmed yet.
type DeliveryQueueEntry struct {
	TaskID         uuid.UUID
	RecipientEmail string
}

// ClaimedDelivery is a single queue row locked by an open transaction.
// The row stays invisible to DequeueOne calls from peer workers until the
// claim is finished or released, so a slow notification send directly
// extends the lock's hold time.
type ClaimedDelivery interface {
	// Entry returns the locked queue row.
	Entry() DeliveryQueueEntry

	// Finish deletes the row and commits the claiming transaction.
	Finish(ctx context.Context) error

	// Release rolls the claiming transaction back, leaving the row in the
	// queue for another attempt.
	Release() error
}

// DeliveryQueueStore defines the interface for the transactional outbox.
type DeliveryQueueStore interface {
	// Enqueue inserts one queue row per recipient, all referencing taskID.
	//
	// IMPORTANT: this MUST run inside the same transaction that inserted
	// the task row (bind via WithTx); either both the task and all its
	// delivery rows exist, or neither does.
	Enqueue(ctx context.Context, taskID uuid.UUID, recipients []string) error

	// DequeueOne opens a transaction and locks exactly one queue row using
	// a skip-locked read, so concurrent workers never claim the same row.
	// Returns ErrNotFound without leaving a transaction open when the queue
	// is empty.
	DequeueOne(ctx context.Context) (ClaimedDelivery, error)

	// CountByTask returns the number of queued rows referencing taskID.
	CountByTask(ctx context.Context, taskID uuid.UUID) (int, error)

	// WithTx returns a new DeliveryQueueStore instance bound to the
	// provided transaction. DequeueOne is not supported on a bound store.
	WithTx(tx *sql.Tx) DeliveryQueueStore
}
