package types

import "time"

// Stream event kinds, emitted in strict order for one streamed message:
// task.started, zero or more token events, then exactly one of
// task.completed / task.failed.
const (
	EventTaskStarted   = "task.started"
	EventToken         = "token"
	EventTaskCompleted = "task.completed"
	EventTaskFailed    = "task.failed"
)

// StreamEvent is one tagged record in the streaming protocol. Records are
// written as line-delimited JSON.
type StreamEvent struct {
	Type      string    `json:"type"`
	TaskID    string    `json:"taskId"`
	Timestamp time.Time `json:"timestamp"`
	// Token and Index are set on token events. Index is 0-based and
	// strictly monotonic within a task.
	Token string `json:"token,omitempty"`
	Index *int   `json:"index,omitempty"`
	// Error is set on task.failed events.
	Error string `json:"error,omitempty"`
}

// TaskStartedEvent builds a task.started record.
func TaskStartedEvent(taskID string) StreamEvent {
	return StreamEvent{Type: EventTaskStarted, TaskID: taskID, Timestamp: time.Now().UTC()}
}

// TokenEvent builds a token record.
func TokenEvent(taskID, token string, index int) StreamEvent {
	return StreamEvent{Type: EventToken, TaskID: taskID, Timestamp: time.Now().UTC(), Token: token, Index: &index}
}

// TaskCompletedEvent builds a task.completed record.
func TaskCompletedEvent(taskID string) StreamEvent {
	return StreamEvent{Type: EventTaskCompleted, TaskID: taskID, Timestamp: time.Now().UTC()}
}

// TaskFailedEvent builds a task.failed record.
func TaskFailedEvent(taskID, errText string) StreamEvent {
	return StreamEvent{Type: EventTaskFailed, TaskID: taskID, Timestamp: time.Now().UTC(), Error: errText}
}
