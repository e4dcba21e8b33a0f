package api

// Common request/response structures

// CreateTaskRequest defines the payload for the task submission endpoint.
// The idempotency key is carried in the Idempotency-Key header, not in
// the body.
type CreateTaskRequest struct {
	TaskType   string `json:"task_type"   validate:"required"`
	SourceFile string `json:"source_file" validate:"required"`
}

// TaskResponse defines the representation of a task returned to clients.
type TaskResponse struct {
	// ID is the task's global identifier ("<owner_id>_<task_id>").
	ID         string  `json:"id"`
	TaskType   string  `json:"task_type"`
	State      string  `json:"state"`
	SourceFile string  `json:"source_file"`
	ResultFile *string `json:"result_file,omitempty"`
}

// TransitionRequest defines the optional payload for the state transition
// endpoints. A result file may be recorded alongside the transition.
type TransitionRequest struct {
	ResultFile *string `json:"result_file,omitempty"`
}

// TransitionResponse confirms a state transition.
type TransitionResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}
