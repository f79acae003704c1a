package types

import "time"

// SessionDTO is the wire representation of a session.
type SessionDTO struct {
	SessionID      string       `json:"sessionId"`
	UserID         string       `json:"userId"`
	SystemPrompt   string       `json:"systemPrompt"`
	ActiveTools    []string     `json:"activeTools"`
	Messages       []MessageDTO `json:"messages"`
	Tasks          []TaskDTO    `json:"tasks"`
	CreatedAt      time.Time    `json:"createdAt"`
	LastActivityAt time.Time    `json:"lastActivityAt"`
}

// MessageDTO is the wire representation of a conversation message.
type MessageDTO struct {
	MessageID string         `json:"messageId"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}
