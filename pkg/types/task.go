package types

import (
	"encoding/json"
	"time"
)

// TaskDTO is the wire representation of a task. Status and action type are
// the enumerated string values, and outputs keep their open JSON shape.
type TaskDTO struct {
	TaskID     string            `json:"taskId"`
	Status     string            `json:"status"`
	ActionType string            `json:"actionType"`
	Outputs    []json.RawMessage `json:"outputs"`
	Timestamps TaskTimestamps    `json:"timestamps"`
}

// TaskTimestamps carries the task's lifecycle times.
type TaskTimestamps struct {
	Created       time.Time  `json:"created"`
	FirstResponse *time.Time `json:"firstResponse,omitempty"`
	Completed     *time.Time `json:"completed,omitempty"`
}

// CapabilityProfile is the snapshot of tool capabilities returned when a
// session is created.
type CapabilityProfile struct {
	Tools []ToolCapability `json:"tools"`
}

// ToolCapability describes one invocable capability.
type ToolCapability struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}
