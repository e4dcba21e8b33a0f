package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tasktrack/tasktrack-api/internal/api/middleware"
	"github.com/tasktrack/tasktrack-api/internal/api/shared"
	"github.com/tasktrack/tasktrack-api/internal/domain"
	"github.com/tasktrack/tasktrack-api/internal/service"
	"github.com/tasktrack/tasktrack-api/internal/store"
)

// idempotencyKeyHeader carries the client-chosen key that makes task
// submission retry-safe.
const idempotencyKeyHeader = "Idempotency-Key"

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// CreateTask handles POST /api/tasks.
//
// The response is written from the pipeline's saved response, so a retry
// carrying an already-used idempotency key receives the original status,
// headers and body byte for byte.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.GetOwnerID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	key := r.Header.Get(idempotencyKeyHeader)
	if key == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Idempotency-Key header required")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	saved, err := h.taskService.SubmitTask(r.Context(), ownerID, service.SubmitTaskRequest{
		TaskType:       req.TaskType,
		SourceFile:     req.SourceFile,
		IdempotencyKey: key,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	writeSavedResponse(w, saved, h.logger)
}

// GetTask handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskService.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toTaskResponse(task))
}

// StartTask handles PUT /api/tasks/{id}/start.
func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.TaskStateInProgress)
}

// PauseTask handles PUT /api/tasks/{id}/pause.
func (h *TaskHandler) PauseTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.TaskStatePaused)
}

// CompleteTask handles PUT /api/tasks/{id}/complete.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.TaskStateCompleted)
}

// FailTask handles PUT /api/tasks/{id}/fail.
func (h *TaskHandler) FailTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.TaskStateFailed)
}

// transition applies a state change to the task named in the URL. The body
// is optional; when present it may carry a result file to record.
func (h *TaskHandler) transition(w http.ResponseWriter, r *http.Request, newState domain.TaskState) {
	var req TransitionRequest
	if err := shared.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	globalID, err := h.taskService.Transition(r.Context(), chi.URLParam(r, "id"), newState, req.ResultFile)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TransitionResponse{
		ID:    globalID,
		State: string(newState),
	})
}

// toTaskResponse converts a domain task to its API representation.
func toTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:         task.GlobalID(),
		TaskType:   task.TaskType,
		State:      string(task.State),
		SourceFile: task.SourceFile,
		ResultFile: task.ResultFile,
	}
}

// writeSavedResponse replays a recorded response verbatim.
func writeSavedResponse(w http.ResponseWriter, saved *store.SavedResponse, logger *slog.Logger) {
	for _, header := range saved.Headers {
		w.Header().Add(header.Name, string(header.Value))
	}
	w.WriteHeader(saved.StatusCode)
	if _, err := w.Write(saved.Body); err != nil {
		logger.Error("failed to write response body", "error", err)
	}
}
