package server

import (
	"encoding/json"

	"github.com/context-kit/contextkit/internal/domain"
	"github.com/context-kit/contextkit/pkg/types"
)

func sessionDTO(s *domain.Session) types.SessionDTO {
	messages := make([]types.MessageDTO, 0, len(s.Messages()))
	for _, m := range s.Messages() {
		messages = append(messages, messageDTO(m))
	}

	tasks := make([]types.TaskDTO, 0, len(s.Tasks()))
	for _, t := range s.Tasks() {
		tasks = append(tasks, taskDTO(t))
	}

	return types.SessionDTO{
		SessionID:      s.ID().String(),
		UserID:         s.UserID(),
		SystemPrompt:   s.SystemPrompt(),
		ActiveTools:    s.ActiveTools(),
		Messages:       messages,
		Tasks:          tasks,
		CreatedAt:      s.CreatedAt(),
		LastActivityAt: s.LastActivityAt(),
	}
}

func messageDTO(m *domain.Message) types.MessageDTO {
	return types.MessageDTO{
		MessageID: m.ID(),
		Role:      string(m.Role()),
		Content:   m.Content(),
		CreatedAt: m.CreatedAt(),
		Metadata:  m.Metadata(),
	}
}

func taskDTO(t *domain.Task) types.TaskDTO {
	outputs := make([]json.RawMessage, 0, len(t.Outputs()))
	for _, o := range t.Outputs() {
		data, err := json.Marshal(o)
		if err != nil {
			continue
		}
		outputs = append(outputs, data)
	}

	return types.TaskDTO{
		TaskID:     t.ID(),
		Status:     string(t.Status()),
		ActionType: string(t.Action()),
		Outputs:    outputs,
		Timestamps: types.TaskTimestamps{
			Created:       t.CreatedAt(),
			FirstResponse: t.FirstResponseAt(),
			Completed:     t.CompletedAt(),
		},
	}
}
