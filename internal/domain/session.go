package domain

import (
	"fmt"
	"time"
)

// DefaultSystemPrompt is used when a session is created without one.
const DefaultSystemPrompt = "You are a guard-railed operator for context repository pipelines. " +
	"Confirm scope, execute only allowlisted commands, and summarize results for humans."

// Session is the aggregate root for one conversation. Message and task lists
// are append-only and strictly insertion-ordered; external code mutates the
// aggregate only through AddMessage and AddTask.
type Session struct {
	id             SessionID
	userID         string
	providerConfig ProviderConfig
	systemPrompt   string
	activeTools    []string
	messages       []*Message
	tasks          []*Task
	createdAt      time.Time
	lastActivityAt time.Time
}

// NewSession creates a session with a fresh id and defaults.
func NewSession(userID string, cfg ProviderConfig, systemPrompt string, activeTools []string) *Session {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	now := time.Now().UTC()
	return &Session{
		id:             NewSessionID(),
		userID:         userID,
		providerConfig: cfg,
		systemPrompt:   systemPrompt,
		activeTools:    append([]string(nil), activeTools...),
		createdAt:      now,
		lastActivityAt: now,
	}
}

// RehydrateSession rebuilds a persisted session, including its message and
// task lists. Only deserializers should call this; it is the only way to set
// lastActivityAt explicitly.
func RehydrateSession(
	id SessionID,
	userID string,
	cfg ProviderConfig,
	systemPrompt string,
	activeTools []string,
	messages []*Message,
	tasks []*Task,
	createdAt, lastActivityAt time.Time,
) (*Session, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("session id cannot be zero")
	}
	if lastActivityAt.Before(createdAt) {
		return nil, fmt.Errorf("last activity %s precedes creation %s", lastActivityAt, createdAt)
	}
	return &Session{
		id:             id,
		userID:         userID,
		providerConfig: cfg,
		systemPrompt:   systemPrompt,
		activeTools:    append([]string(nil), activeTools...),
		messages:       append([]*Message(nil), messages...),
		tasks:          append([]*Task(nil), tasks...),
		createdAt:      createdAt,
		lastActivityAt: lastActivityAt,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() SessionID { return s.id }

// UserID returns the owning user.
func (s *Session) UserID() string { return s.userID }

// ProviderConfig returns the provider configuration.
func (s *Session) ProviderConfig() ProviderConfig { return s.providerConfig }

// SystemPrompt returns the system prompt.
func (s *Session) SystemPrompt() string { return s.systemPrompt }

// ActiveTools returns a copy of the enabled tool id list.
func (s *Session) ActiveTools() []string {
	return append([]string(nil), s.activeTools...)
}

// Messages returns a copy of the ordered message list.
func (s *Session) Messages() []*Message {
	return append([]*Message(nil), s.messages...)
}

// Tasks returns a copy of the ordered task list.
func (s *Session) Tasks() []*Task {
	return append([]*Task(nil), s.tasks...)
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastActivityAt returns the time of the most recent message or task.
func (s *Session) LastActivityAt() time.Time { return s.lastActivityAt }

// AddMessage appends a message and bumps last activity.
func (s *Session) AddMessage(m *Message) {
	s.messages = append(s.messages, m)
	s.touch()
}

// AddTask appends a task and bumps last activity.
func (s *Session) AddTask(t *Task) {
	s.tasks = append(s.tasks, t)
	s.touch()
}

// IsExpired reports whether the session's last activity is older than the
// given maximum age.
func (s *Session) IsExpired(maxAge time.Duration, now time.Time) bool {
	return now.Sub(s.lastActivityAt) > maxAge
}

func (s *Session) touch() {
	s.lastActivityAt = time.Now().UTC()
}
