// Package domain holds the session aggregate and its entities and value
// objects: Session, Message, Task, SessionID, ProviderConfig and the
// tagged Output union.
package domain

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// SessionID is an opaque session identifier, compared by value.
type SessionID struct {
	value string
}

// NewSessionID generates a fresh session identifier.
func NewSessionID() SessionID {
	return SessionID{value: ulid.Make().String()}
}

// ParseSessionID validates a string form of a session identifier.
func ParseSessionID(s string) (SessionID, error) {
	if _, err := ulid.ParseStrict(s); err != nil {
		return SessionID{}, fmt.Errorf("invalid session id %q: %w", s, err)
	}
	return SessionID{value: s}, nil
}

// String returns the canonical string form.
func (id SessionID) String() string {
	return id.value
}

// IsZero reports whether the id is the zero value.
func (id SessionID) IsZero() bool {
	return id.value == ""
}

// newEntityID generates a ULID for messages, tasks and tool calls.
func newEntityID() string {
	return ulid.Make().String()
}
