package idempotency

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tasktrack/tasktrack-api/internal/platform/logger"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

// ErrConcurrentDuplicate is returned when a key is reserved by another
// request that has not completed yet. The caller cannot distinguish a
// genuinely in-flight duplicate from a reservation stranded by a crash, so
// this surfaces as an internal error rather than a retry signal.
var ErrConcurrentDuplicate = errors.New("concurrent request for the same idempotency key")

// Reservation is an exclusive claim on an idempotency key, wrapping the
// open transaction all side effects for the request must run in. The gate
// owns the commit boundary: callers finish with Complete, or Rollback on
// failure, and never commit the transaction themselves.
type Reservation interface {
	// Tx returns the reservation's transaction for the caller's side effects.
	Tx() *sql.Tx

	// Complete records the response into the reserved record and commits
	// the transaction, making the caller's writes and the saved response
	// durable together.
	Complete(ctx context.Context, resp *store.SavedResponse) error

	// Rollback aborts the reservation. No partial reservation persists; the
	// key becomes claimable again by the next request. Safe to call after
	// Complete, where it is a no-op.
	Rollback() error
}

// Gate coordinates idempotent processing of submissions. BeginProcessing
// either hands the caller an open reservation transaction (first writer) or
// the response saved by a previous completion (replay).
type Gate struct {
	db    *sql.DB
	store store.IdempotencyStore
}

// NewGate creates a new Gate backed by the given connection pool and store.
func NewGate(db *sql.DB, idempotencyStore store.IdempotencyStore) *Gate {
	return &Gate{
		db:    db,
		store: idempotencyStore,
	}
}

// BeginProcessing attempts to claim (ownerID, key). Exactly one of the
// returned values is non-nil on success: a Reservation when the caller is
// the first to see this key, or the saved response when the key was already
// completed. A key that is reserved but not completed yields
// ErrConcurrentDuplicate.
func (g *Gate) BeginProcessing(ctx context.Context, ownerID uuid.UUID, key Key) (Reservation, *store.SavedResponse, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin reservation transaction: %w", err)
	}

	inserted, err := g.store.WithTx(tx).Reserve(ctx, ownerID, key.String())
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.FromContext(ctx).Error("failed to roll back reservation transaction",
				"error", rbErr)
		}
		return nil, nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}

	if inserted {
		return &reservation{
			tx:      tx,
			store:   g.store,
			ownerID: ownerID,
			key:     key,
		}, nil, nil
	}

	// The key already exists; this transaction did no work and must not
	// stay open while we look up the saved response.
	if err := tx.Rollback(); err != nil {
		return nil, nil, fmt.Errorf("failed to roll back reservation transaction: %w", err)
	}

	saved, err := g.store.GetResponse(ctx, ownerID, key.String())
	if err != nil {
		if errors.Is(err, store.ErrReservationInFlight) {
			return nil, nil, fmt.Errorf("%w: owner %s", ErrConcurrentDuplicate, ownerID)
		}
		// The insert conflicted, so the record must exist; not finding it
		// now is an unexpected store failure.
		return nil, nil, fmt.Errorf("failed to load saved response: %w", err)
	}

	return nil, saved, nil
}

// reservation is the database-backed Reservation implementation.
type reservation struct {
	tx      *sql.Tx
	store   store.IdempotencyStore
	ownerID uuid.UUID
	key     Key
	done    bool
}

// Tx implements Reservation.Tx
func (r *reservation) Tx() *sql.Tx {
	return r.tx
}

// Complete implements Reservation.Complete
func (r *reservation) Complete(ctx context.Context, resp *store.SavedResponse) error {
	if r.done {
		return fmt.Errorf("reservation already finished")
	}
	r.done = true

	if err := r.store.WithTx(r.tx).SaveResponse(ctx, r.ownerID, r.key.String(), resp); err != nil {
		if rbErr := r.tx.Rollback(); rbErr != nil {
			logger.FromContext(ctx).Error("failed to roll back reservation transaction",
				"error", rbErr)
		}
		return fmt.Errorf("failed to save response: %w", err)
	}

	if err := r.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reservation transaction: %w", err)
	}

	return nil
}

// Rollback implements Reservation.Rollback
func (r *reservation) Rollback() error {
	if r.done {
		return nil
	}
	r.done = true
	return r.tx.Rollback()
}
