package store

import "errors"

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrTaskNotFound is returned when a requested task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when entity data fails a database-level
	// constraint (foreign key, check, or not-null violation).
	ErrInvalidEntity = errors.New("invalid entity data")

	// ErrReservationInFlight is returned when an idempotency record exists in
	// the reserved state: the key was claimed by another request whose
	// response has not been saved yet.
	ErrReservationInFlight = errors.New("idempotency reservation still in flight")
)
