package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition signals a task state machine misuse. It indicates an
// orchestration bug and must never be silently ignored.
var ErrInvalidTransition = errors.New("invalid task transition")

// TaskStatus is the task lifecycle state.
// pending -> streaming -> {succeeded | failed | cancelled}
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskStreaming TaskStatus = "streaming"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// IsTerminal reports whether the status is final.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskSucceeded || s == TaskFailed || s == TaskCancelled
}

// IsActive reports whether the task is still running.
func (s TaskStatus) IsActive() bool {
	return s == TaskPending || s == TaskStreaming
}

// ParseTaskStatus validates a status string.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskPending, TaskStreaming, TaskSucceeded, TaskFailed, TaskCancelled:
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("invalid task status: %q", s)
}

// TaskAction categorizes the work a task tracks.
type TaskAction string

const (
	ActionPrompt        TaskAction = "prompt"
	ActionToolExecution TaskAction = "tool_execution"
	ActionPipelineRun   TaskAction = "pipeline_run"
	ActionFileRead      TaskAction = "file_read"
	ActionApproval      TaskAction = "approval"
	ActionFallback      TaskAction = "fallback"
)

// ParseTaskAction validates an action string.
func ParseTaskAction(s string) (TaskAction, error) {
	switch TaskAction(s) {
	case ActionPrompt, ActionToolExecution, ActionPipelineRun, ActionFileRead, ActionApproval, ActionFallback:
		return TaskAction(s), nil
	}
	return "", fmt.Errorf("invalid task action: %q", s)
}

// Task tracks one unit of work inside a session. Tasks are owned by the
// session that created them and are mutated only through their lifecycle
// methods.
type Task struct {
	id              string
	action          TaskAction
	status          TaskStatus
	createdAt       time.Time
	firstResponseAt *time.Time
	completedAt     *time.Time
	outputs         []Output
}

// NewTask creates a pending task.
func NewTask(action TaskAction) *Task {
	return &Task{
		id:        newEntityID(),
		action:    action,
		status:    TaskPending,
		createdAt: time.Now().UTC(),
	}
}

// RehydrateTask rebuilds a persisted task. Only deserializers should call this.
func RehydrateTask(id string, action TaskAction, status TaskStatus, createdAt time.Time, firstResponseAt, completedAt *time.Time, outputs []Output) (*Task, error) {
	if id == "" {
		return nil, fmt.Errorf("task id cannot be empty")
	}
	if _, err := ParseTaskAction(string(action)); err != nil {
		return nil, err
	}
	if _, err := ParseTaskStatus(string(status)); err != nil {
		return nil, err
	}
	return &Task{
		id:              id,
		action:          action,
		status:          status,
		createdAt:       createdAt,
		firstResponseAt: firstResponseAt,
		completedAt:     completedAt,
		outputs:         append([]Output(nil), outputs...),
	}, nil
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// Action returns the action type.
func (t *Task) Action() TaskAction { return t.action }

// Status returns the current lifecycle state.
func (t *Task) Status() TaskStatus { return t.status }

// CreatedAt returns the creation timestamp.
func (t *Task) CreatedAt() time.Time { return t.createdAt }

// FirstResponseAt returns when the task started producing output, or nil.
func (t *Task) FirstResponseAt() *time.Time { return t.firstResponseAt }

// CompletedAt returns when the task reached a terminal state, or nil.
func (t *Task) CompletedAt() *time.Time { return t.completedAt }

// Outputs returns a copy of the ordered output list.
func (t *Task) Outputs() []Output {
	return append([]Output(nil), t.outputs...)
}

// Start transitions the task from pending to streaming and records the
// first-response time. Any other starting state is a usage error.
func (t *Task) Start() error {
	if t.status != TaskPending {
		return fmt.Errorf("%w: cannot start task in status %s", ErrInvalidTransition, t.status)
	}
	t.status = TaskStreaming
	now := time.Now().UTC()
	t.firstResponseAt = &now
	return nil
}

// Succeed transitions the task to succeeded from any non-terminal state and
// appends the given outputs, if any. Providers that never stream may succeed
// a task straight from pending.
func (t *Task) Succeed(outputs ...Output) error {
	if t.status.IsTerminal() {
		return fmt.Errorf("%w: cannot succeed task in status %s", ErrInvalidTransition, t.status)
	}
	t.status = TaskSucceeded
	now := time.Now().UTC()
	t.completedAt = &now
	t.outputs = append(t.outputs, outputs...)
	return nil
}

// Fail transitions the task to failed and records the error as an output so
// callers can render the failure without a second round trip.
func (t *Task) Fail(errText string) error {
	if t.status.IsTerminal() {
		return fmt.Errorf("%w: cannot fail task in status %s", ErrInvalidTransition, t.status)
	}
	t.status = TaskFailed
	now := time.Now().UTC()
	t.completedAt = &now
	t.outputs = append(t.outputs, NewErrorOutput(errText))
	return nil
}

// Cancel transitions the task to cancelled.
func (t *Task) Cancel() error {
	if t.status.IsTerminal() {
		return fmt.Errorf("%w: cannot cancel task in status %s", ErrInvalidTransition, t.status)
	}
	t.status = TaskCancelled
	now := time.Now().UTC()
	t.completedAt = &now
	return nil
}
