package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/context-kit/contextkit/internal/domain"
)

// sessionRecord is the self-describing JSON shape a session is stored under.
type sessionRecord struct {
	SessionID      string               `json:"session_id"`
	UserID         string               `json:"user_id"`
	CreatedAt      time.Time            `json:"created_at"`
	LastActivityAt time.Time            `json:"last_activity_at"`
	SystemPrompt   string               `json:"system_prompt"`
	ActiveTools    []string             `json:"active_tools"`
	ProviderConfig providerConfigRecord `json:"provider_config"`
	Messages       []messageRecord      `json:"messages"`
	Tasks          []taskRecord         `json:"tasks"`
}

type providerConfigRecord struct {
	Provider    string  `json:"provider"`
	Endpoint    string  `json:"endpoint"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	APIKey      string  `json:"api_key,omitempty"`
	APIVersion  string  `json:"api_version,omitempty"`
}

type messageRecord struct {
	MessageID string         `json:"message_id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type taskRecord struct {
	TaskID          string            `json:"task_id"`
	ActionType      string            `json:"action_type"`
	Status          string            `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	FirstResponseAt *time.Time        `json:"first_response_at,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	Outputs         []json.RawMessage `json:"outputs"`
}

// encodeSession serializes the full aggregate, including nested messages and
// tasks, to JSON.
func encodeSession(s *domain.Session) ([]byte, error) {
	cfg := s.ProviderConfig()
	rec := sessionRecord{
		SessionID:      s.ID().String(),
		UserID:         s.UserID(),
		CreatedAt:      s.CreatedAt(),
		LastActivityAt: s.LastActivityAt(),
		SystemPrompt:   s.SystemPrompt(),
		ActiveTools:    s.ActiveTools(),
		ProviderConfig: providerConfigRecord{
			Provider:    string(cfg.Kind()),
			Endpoint:    cfg.Endpoint(),
			Model:       cfg.Model(),
			Temperature: cfg.Temperature(),
			MaxTokens:   cfg.MaxTokens(),
			APIKey:      cfg.APIKey(),
			APIVersion:  cfg.APIVersion(),
		},
	}

	for _, m := range s.Messages() {
		rec.Messages = append(rec.Messages, messageRecord{
			MessageID: m.ID(),
			Role:      string(m.Role()),
			Content:   m.Content(),
			Timestamp: m.CreatedAt(),
			Metadata:  m.Metadata(),
		})
	}

	for _, t := range s.Tasks() {
		tr := taskRecord{
			TaskID:          t.ID(),
			ActionType:      string(t.Action()),
			Status:          string(t.Status()),
			CreatedAt:       t.CreatedAt(),
			FirstResponseAt: t.FirstResponseAt(),
			CompletedAt:     t.CompletedAt(),
		}
		for _, o := range t.Outputs() {
			raw, err := json.Marshal(o)
			if err != nil {
				return nil, fmt.Errorf("marshal task output: %w", err)
			}
			tr.Outputs = append(tr.Outputs, raw)
		}
		rec.Tasks = append(rec.Tasks, tr)
	}

	return json.Marshal(rec)
}

// decodeSession rehydrates a session aggregate from its JSON record. The
// aggregate is rebuilt through the domain constructor path only.
func decodeSession(data []byte) (*domain.Session, error) {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session record: %w", err)
	}

	id, err := domain.ParseSessionID(rec.SessionID)
	if err != nil {
		return nil, err
	}

	var opts []domain.ProviderOption
	if rec.ProviderConfig.MaxTokens > 0 {
		opts = append(opts, domain.WithMaxTokens(rec.ProviderConfig.MaxTokens))
	}
	if rec.ProviderConfig.APIKey != "" {
		opts = append(opts, domain.WithAPIKey(rec.ProviderConfig.APIKey))
	}
	if rec.ProviderConfig.APIVersion != "" {
		opts = append(opts, domain.WithAPIVersion(rec.ProviderConfig.APIVersion))
	}
	cfg, err := domain.NewProviderConfig(
		domain.ProviderKind(rec.ProviderConfig.Provider),
		rec.ProviderConfig.Endpoint,
		rec.ProviderConfig.Model,
		rec.ProviderConfig.Temperature,
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("rebuild provider config: %w", err)
	}

	var messages []*domain.Message
	for _, mr := range rec.Messages {
		m, err := domain.RehydrateMessage(mr.MessageID, domain.Role(mr.Role), mr.Content, mr.Timestamp, mr.Metadata)
		if err != nil {
			return nil, fmt.Errorf("rebuild message %s: %w", mr.MessageID, err)
		}
		messages = append(messages, m)
	}

	var tasks []*domain.Task
	for _, tr := range rec.Tasks {
		var outputs []domain.Output
		for _, raw := range tr.Outputs {
			o, err := domain.UnmarshalOutput(raw)
			if err != nil {
				return nil, fmt.Errorf("rebuild task output: %w", err)
			}
			outputs = append(outputs, o)
		}
		t, err := domain.RehydrateTask(
			tr.TaskID,
			domain.TaskAction(tr.ActionType),
			domain.TaskStatus(tr.Status),
			tr.CreatedAt,
			tr.FirstResponseAt,
			tr.CompletedAt,
			outputs,
		)
		if err != nil {
			return nil, fmt.Errorf("rebuild task %s: %w", tr.TaskID, err)
		}
		tasks = append(tasks, t)
	}

	return domain.RehydrateSession(
		id,
		rec.UserID,
		cfg,
		rec.SystemPrompt,
		rec.ActiveTools,
		messages,
		tasks,
		rec.CreatedAt,
		rec.LastActivityAt,
	)
}

// lastActivityOf peeks at a record's last activity timestamp without a full
// decode, for the expiration scan.
func lastActivityOf(data []byte) (time.Time, error) {
	var probe struct {
		LastActivityAt time.Time `json:"last_activity_at"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return time.Time{}, err
	}
	return probe.LastActivityAt, nil
}
