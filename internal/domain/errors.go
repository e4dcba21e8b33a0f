// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrEmptyTaskID is returned when a task ID is missing.
	ErrEmptyTaskID = errors.New("task ID cannot be empty")

	// ErrEmptyTaskOwnerID is returned when a task owner ID is missing.
	ErrEmptyTaskOwnerID = errors.New("task owner ID cannot be empty")

	// ErrEmptyTaskType is returned when a task type is missing.
	ErrEmptyTaskType = errors.New("task type cannot be empty")

	// ErrEmptySourceFile is returned when a source file is missing.
	ErrEmptySourceFile = errors.New("source file cannot be empty")

	// ErrInvalidTaskState is returned when a task state is not valid.
	ErrInvalidTaskState = errors.New("invalid task state")
)
