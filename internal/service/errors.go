// Package service implements the application's business operations on top
// of the store interfaces.
package service

import "errors"

// Common service errors.
var (
	// ErrMalformedTaskID is returned when a task global ID cannot be parsed
	// into its owner and task components.
	ErrMalformedTaskID = errors.New("malformed task identifier")
)
