package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// HeaderPair is one recorded response header. Values are kept as opaque
// bytes so the replayed response is byte-for-byte identical to the original.
type HeaderPair struct {
	Name  string `json:"name"`
	Value []byte `json:"value"`
}

// SavedResponse is the HTTP-equivalent response recorded for a completed
// idempotency key.
type SavedResponse struct {
	StatusCode int
	Headers    []HeaderPair
	Body       []byte
}

// IdempotencyStore defines the interface for idempotency record persistence.
// A record exists either reserved (key claimed, response fields null,
// processing in flight) or completed (response populated). Exactly one
// writer may hold the reserved state for a given key at a time.
type IdempotencyStore interface {
	// Reserve inserts a reserved record for (ownerID, key) using
	// insert-if-absent semantics. Returns true if the record was inserted,
	// false if one already exists; a conflict is not an error.
	Reserve(ctx context.Context, ownerID uuid.UUID, key string) (bool, error)

	// GetResponse looks up the saved response for (ownerID, key).
	// Returns ErrNotFound if no record exists, and ErrReservationInFlight
	// if a record exists but its response fields are still null.
	GetResponse(ctx context.Context, ownerID uuid.UUID, key string) (*SavedResponse, error)

	// SaveResponse fills in the reserved record exactly once. The record is
	// read-only afterward.
	SaveResponse(ctx context.Context, ownerID uuid.UUID, key string, resp *SavedResponse) error

	// DeleteExpired purges records older than the retention window and
	// returns the number of rows removed.
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)

	// WithTx returns a new IdempotencyStore instance bound to the provided
	// transaction.
	WithTx(tx *sql.Tx) IdempotencyStore
}
