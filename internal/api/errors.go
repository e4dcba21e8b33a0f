package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tasktrack/tasktrack-api/internal/domain"
	"github.com/tasktrack/tasktrack-api/internal/idempotency"
	"github.com/tasktrack/tasktrack-api/internal/service"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	var transitionErr *domain.TransitionError

	switch {
	// Bad request errors
	case errors.Is(err, idempotency.ErrInvalidKey),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.As(err, &transitionErr):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, service.ErrMalformedTaskID):
		return http.StatusNotFound

	// A concurrently in-flight duplicate surfaces as a server error; the
	// client retries once the first request has finished.
	case errors.Is(err, idempotency.ErrConcurrentDuplicate):
		return http.StatusInternalServerError

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var transitionErr *domain.TransitionError

	switch {
	case errors.Is(err, idempotency.ErrInvalidKey):
		return "Invalid idempotency key"

	case errors.As(err, &transitionErr):
		return "Invalid state transition"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid task data"

	case errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, service.ErrMalformedTaskID):
		return "Task not found"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a struct-tag validation error into a short
// user-facing message without echoing internal type names.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'CreateTaskRequest.TaskType' Error:Field
	// validation for 'TaskType' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				if len(fieldParts) >= 5 {
					return fmt.Sprintf("Invalid %s: %s tag failed", field, fieldParts[3])
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}
