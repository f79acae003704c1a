package domain

import (
	"fmt"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAssistant, RoleSystem:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role: %q", s)
}

// Message is a single immutable conversation message. Equality is by id.
type Message struct {
	id        string
	role      Role
	content   string
	createdAt time.Time
	metadata  map[string]any
}

// NewMessage creates a message with a fresh id. The role must be valid.
func NewMessage(role Role, content string, metadata map[string]any) (*Message, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	return &Message{
		id:        newEntityID(),
		role:      role,
		content:   content,
		createdAt: time.Now().UTC(),
		metadata:  copyMetadata(metadata),
	}, nil
}

// NewUserMessage creates a user message.
func NewUserMessage(content string, metadata map[string]any) *Message {
	m, _ := NewMessage(RoleUser, content, metadata)
	return m
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) *Message {
	m, _ := NewMessage(RoleAssistant, content, nil)
	return m
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) *Message {
	m, _ := NewMessage(RoleSystem, content, nil)
	return m
}

// RehydrateMessage rebuilds a persisted message. Only deserializers should
// call this; it bypasses timestamp assignment but still validates the role.
func RehydrateMessage(id string, role Role, content string, createdAt time.Time, metadata map[string]any) (*Message, error) {
	if id == "" {
		return nil, fmt.Errorf("message id cannot be empty")
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	return &Message{
		id:        id,
		role:      role,
		content:   content,
		createdAt: createdAt,
		metadata:  copyMetadata(metadata),
	}, nil
}

// ID returns the message identifier.
func (m *Message) ID() string { return m.id }

// Role returns the author role.
func (m *Message) Role() Role { return m.role }

// Content returns the message text.
func (m *Message) Content() string { return m.content }

// CreatedAt returns the creation timestamp.
func (m *Message) CreatedAt() time.Time { return m.createdAt }

// Metadata returns a copy of the free-form metadata map.
func (m *Message) Metadata() map[string]any { return copyMetadata(m.metadata) }

// Equal reports whether two messages have the same identity.
func (m *Message) Equal(other *Message) bool {
	return other != nil && m.id == other.id
}

func copyMetadata(md map[string]any) map[string]any {
	if len(md) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
