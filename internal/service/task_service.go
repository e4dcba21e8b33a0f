package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tasktrack/tasktrack-api/internal/domain"
	"github.com/tasktrack/tasktrack-api/internal/idempotency"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

// IdempotencyGate defines the gate interface used by the submission
// pipeline. Implemented by idempotency.Gate.
type IdempotencyGate interface {
	BeginProcessing(
		ctx context.Context,
		ownerID uuid.UUID,
		key idempotency.Key,
	) (idempotency.Reservation, *store.SavedResponse, error)
}

// SubmitTaskRequest carries the client-supplied fields of a task submission.
type SubmitTaskRequest struct {
	TaskType       string
	SourceFile     string
	IdempotencyKey string
}

// TaskService provides task submission and lifecycle operations.
type TaskService interface {
	// SubmitTask runs the idempotent submission pipeline: the first request
	// for a key creates the task and its delivery fan-out atomically and
	// records the response; retries of the same key replay that response
	// byte for byte.
	SubmitTask(ctx context.Context, ownerID uuid.UUID, req SubmitTaskRequest) (*store.SavedResponse, error)

	// GetTask retrieves a task by its global ID.
	GetTask(ctx context.Context, taskGlobalID string) (*domain.Task, error)

	// Transition moves a task to a new state, optionally recording a result
	// file. Returns the task's global ID on success.
	Transition(ctx context.Context, taskGlobalID string, newState domain.TaskState, resultFile *string) (string, error)
}

// taskService is the production TaskService implementation.
type taskService struct {
	gate       IdempotencyGate
	tasks      store.TaskStore
	profiles   store.ProfileStore
	deliveries store.DeliveryQueueStore
	logger     *slog.Logger
}

// NewTaskService creates a new TaskService with the given dependencies.
func NewTaskService(
	gate IdempotencyGate,
	tasks store.TaskStore,
	profiles store.ProfileStore,
	deliveries store.DeliveryQueueStore,
	logger *slog.Logger,
) TaskService {
	return &taskService{
		gate:       gate,
		tasks:      tasks,
		profiles:   profiles,
		deliveries: deliveries,
		logger:     logger,
	}
}

// messageResponse is the JSON body of a successful submission.
type messageResponse struct {
	Message string `json:"message"`
}

// SubmitTask implements TaskService.SubmitTask
func (s *taskService) SubmitTask(ctx context.Context, ownerID uuid.UUID, req SubmitTaskRequest) (*store.SavedResponse, error) {
	// Validation failures must be rejected before any transaction opens.
	key, err := idempotency.NewKey(req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	task, err := domain.NewTask(ownerID, req.TaskType, req.SourceFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	reservation, saved, err := s.gate.BeginProcessing(ctx, ownerID, key)
	if err != nil {
		return nil, err
	}

	if saved != nil {
		s.logger.Debug("replaying saved submission response",
			"owner_id", ownerID,
			"idempotency_key", key.String())
		return saved, nil
	}

	// Rollback is a no-op once the reservation completes; this only fires
	// on the error paths below.
	defer func() {
		if rbErr := reservation.Rollback(); rbErr != nil {
			s.logger.Error("failed to roll back submission",
				"owner_id", ownerID,
				"error", rbErr)
		}
	}()

	tx := reservation.Tx()

	if err := s.tasks.WithTx(tx).Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	recipients, err := s.profiles.WithTx(tx).GetConfirmedEmails(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch confirmed profiles: %w", err)
	}

	if err := s.deliveries.WithTx(tx).Enqueue(ctx, task.ID, recipients); err != nil {
		return nil, fmt.Errorf("failed to enqueue deliveries: %w", err)
	}

	response, err := submissionResponse()
	if err != nil {
		return nil, err
	}

	if err := reservation.Complete(ctx, response); err != nil {
		return nil, fmt.Errorf("failed to complete submission: %w", err)
	}

	s.logger.Info("task created",
		"task_id", task.ID,
		"owner_id", ownerID,
		"task_type", task.TaskType,
		"recipients", len(recipients))

	return response, nil
}

// GetTask implements TaskService.GetTask
func (s *taskService) GetTask(ctx context.Context, taskGlobalID string) (*domain.Task, error) {
	taskID, err := parseGlobalID(taskGlobalID)
	if err != nil {
		return nil, err
	}

	return s.tasks.GetByID(ctx, taskID)
}

// Transition implements TaskService.Transition
func (s *taskService) Transition(ctx context.Context, taskGlobalID string, newState domain.TaskState, resultFile *string) (string, error) {
	taskID, err := parseGlobalID(taskGlobalID)
	if err != nil {
		return "", err
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch task for state transition: %w", err)
	}

	if err := task.CanTransitionTo(newState); err != nil {
		return "", err
	}

	update := domain.TaskUpdate{
		State:      &newState,
		ResultFile: resultFile,
	}

	if err := s.tasks.Update(ctx, taskID, update); err != nil {
		return "", fmt.Errorf("failed to update task: %w", err)
	}

	return task.GlobalID(), nil
}

// parseGlobalID splits a task global ID ("<owner_id>_<task_id>") and
// returns the task component.
func parseGlobalID(taskGlobalID string) (uuid.UUID, error) {
	tokens := strings.SplitN(taskGlobalID, "_", 2)
	if len(tokens) != 2 {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrMalformedTaskID, taskGlobalID)
	}

	taskID, err := uuid.Parse(tokens[1])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrMalformedTaskID, taskGlobalID)
	}

	return taskID, nil
}

// submissionResponse builds the canonical success response recorded for a
// fresh submission.
func submissionResponse() (*store.SavedResponse, error) {
	body, err := json.Marshal(messageResponse{Message: "Task successfully created"})
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission response: %w", err)
	}

	return &store.SavedResponse{
		StatusCode: http.StatusOK,
		Headers: []store.HeaderPair{
			{Name: "Content-Type", Value: []byte("application/json")},
		},
		Body: body,
	}, nil
}
