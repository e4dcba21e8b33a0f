package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tasktrack/tasktrack-api/internal/domain"
	"github.com/tasktrack/tasktrack-api/internal/idempotency"
	"github.com/tasktrack/tasktrack-api/internal/service"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid key", idempotency.ErrInvalidKey, http.StatusBadRequest},
		{"wrapped invalid key", fmt.Errorf("%w: too long", idempotency.ErrInvalidKey), http.StatusBadRequest},
		{"validation", domain.ErrValidation, http.StatusBadRequest},
		{"transition", &domain.TransitionError{From: domain.TaskStatePaused, To: domain.TaskStatePaused}, http.StatusBadRequest},
		{"task not found", store.ErrTaskNotFound, http.StatusNotFound},
		{"malformed id", service.ErrMalformedTaskID, http.StatusNotFound},
		{"concurrent duplicate", idempotency.ErrConcurrentDuplicate, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessageNeverEchoesInternals(t *testing.T) {
	err := errors.New("pq: connection refused host=db.internal")
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(err))

	assert.Equal(t, "Task not found", GetSafeErrorMessage(store.ErrTaskNotFound))
	assert.Equal(t, "Invalid idempotency key", GetSafeErrorMessage(idempotency.ErrInvalidKey))
}

func TestSanitizeValidationError(t *testing.T) {
	err := errors.New(
		"Key: 'CreateTaskRequest.TaskType' Error:Field validation for 'TaskType' failed on the 'required' tag")
	assert.Equal(t, "Invalid TaskType: required tag failed", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("something else")))
}
