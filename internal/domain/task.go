package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// TaskState represents the lifecycle state of a task.
type TaskState string

// Possible task state values
const (
	TaskStateNotStarted TaskState = "not_started"
	TaskStateInProgress TaskState = "in_progress"
	TaskStateCompleted  TaskState = "completed"
	TaskStatePaused     TaskState = "paused"
	TaskStateFailed     TaskState = "failed"
)

// TransitionError is returned when a requested state transition is not
// allowed. It carries a human-readable description of the attempted
// transition so handlers can surface it to the client.
type TransitionError struct {
	From TaskState
	To   TaskState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition from %q to %q", e.From, e.To)
}

// Task represents a unit of work submitted by a profile. Tasks are created
// in NotStarted and are mutated only through explicit update requests; the
// store is the single source of truth for their current state.
type Task struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	TaskType   string    `json:"task_type"`
	State      TaskState `json:"state"`
	SourceFile string    `json:"source_file"`
	ResultFile *string   `json:"result_file,omitempty"`
}

// NewTask creates a new Task in the NotStarted state with a freshly
// generated ID. Returns an error if validation fails.
func NewTask(ownerID uuid.UUID, taskType, sourceFile string) (*Task, error) {
	task := &Task{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		TaskType:   taskType,
		State:      TaskStateNotStarted,
		SourceFile: sourceFile,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.OwnerID == uuid.Nil {
		return ErrEmptyTaskOwnerID
	}

	if t.TaskType == "" {
		return ErrEmptyTaskType
	}

	if t.SourceFile == "" {
		return ErrEmptySourceFile
	}

	if !isValidTaskState(t.State) {
		return ErrInvalidTaskState
	}

	return nil
}

// GlobalID returns the owner-scoped identifier for the task, composed of
// the owner ID and the task ID joined by an underscore.
func (t *Task) GlobalID() string {
	return fmt.Sprintf("%s_%s", t.OwnerID, t.ID)
}

// CanTransitionTo reports whether the task may move to the given state.
// The only rule enforced is that a task cannot be transitioned into the
// state it already occupies; every pair of distinct states is permitted.
// Callers needing a stricter workflow ordering must validate it themselves.
func (t *Task) CanTransitionTo(state TaskState) error {
	if t.State == state {
		return &TransitionError{From: t.State, To: state}
	}
	return nil
}

// isValidTaskState checks if the given state is a valid TaskState.
func isValidTaskState(state TaskState) bool {
	switch state {
	case TaskStateNotStarted, TaskStateInProgress, TaskStateCompleted,
		TaskStatePaused, TaskStateFailed:
		return true
	default:
		return false
	}
}

// TaskUpdate is a sparse patch for a task. Only non-nil fields are written
// when the patch is applied; absent fields are left untouched.
type TaskUpdate struct {
	TaskType   *string
	SourceFile *string
	State      *TaskState
	ResultFile *string
}

// IsEmpty reports whether the patch carries no assignments at all.
func (u *TaskUpdate) IsEmpty() bool {
	return u.TaskType == nil && u.SourceFile == nil && u.State == nil && u.ResultFile == nil
}
