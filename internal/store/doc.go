// Package store defines the persistence interfaces for tasks, profiles,
// the delivery queue and idempotency records. Keeping the interfaces here
// lets the service and worker layers stay independent of the concrete
// database implementation.
package store
