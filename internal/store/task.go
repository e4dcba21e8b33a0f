package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tasktrack/tasktrack-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	//
	// IMPORTANT: when the task is created by the submission pipeline this
	// method MUST run inside the idempotency reservation transaction so the
	// task row and its delivery-queue rows are written atomically. Use
	// WithTx to bind the store to that transaction.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update applies a sparse patch to an existing task. Only fields present
	// in the patch are written; the generated SET clause contains exactly
	// those assignments. An empty patch is a safe no-op.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, id uuid.UUID, update domain.TaskUpdate) error

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}

// ProfileStore provides read access to profile contact details. Profile
// registration, confirmation, and authentication are owned by a separate
// surface; the submission pipeline only needs the fan-out recipient list.
type ProfileStore interface {
	// GetConfirmedEmails returns the stored email string of every profile
	// whose status is "confirmed" at the instant of the query. The values
	// are returned raw; validity is re-checked at delivery time.
	GetConfirmedEmails(ctx context.Context) ([]string, error)

	// WithTx returns a new ProfileStore instance bound to the provided
	// transaction.
	WithTx(tx *sql.Tx) ProfileStore
}
