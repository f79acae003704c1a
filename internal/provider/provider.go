// Package provider abstracts the language-model backends behind a uniform
// interface built on the Eino framework. Provider-specific branching lives
// in the factory; callers never see which backend they are talking to.
package provider

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/eino/schema"

	"github.com/context-kit/contextkit/internal/domain"
	"github.com/context-kit/contextkit/internal/tool"
)

// Provider is a language-model backend. Invoke performs one non-streaming
// completion; the reply may carry tool-call requests. Stream performs a
// streaming completion and yields text fragments.
type Provider interface {
	Invoke(ctx context.Context, messages []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error)
	Stream(ctx context.Context, messages []*schema.Message) (*TokenStream, error)
}

// TokenStream yields text fragments from a streaming completion.
type TokenStream struct {
	reader *schema.StreamReader[*schema.Message]
}

// NewTokenStream wraps an Eino stream reader.
func NewTokenStream(reader *schema.StreamReader[*schema.Message]) *TokenStream {
	return &TokenStream{reader: reader}
}

// Recv returns the next non-empty text fragment. It returns io.EOF when the
// stream is exhausted.
func (s *TokenStream) Recv() (string, error) {
	for {
		msg, err := s.reader.Recv()
		if err != nil {
			return "", err
		}
		if msg.Content != "" {
			return msg.Content, nil
		}
	}
}

// Close releases the underlying stream.
func (s *TokenStream) Close() {
	s.reader.Close()
}

// BuildHistory converts a session's message history to the model's wire
// format. Only user and assistant messages are included; system and
// tool-result messages are assembled by the agent loop itself.
func BuildHistory(messages []*domain.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role() {
		case domain.RoleUser:
			out = append(out, schema.UserMessage(m.Content()))
		case domain.RoleAssistant:
			out = append(out, schema.AssistantMessage(m.Content(), nil))
		}
	}
	return out
}

// ToolInfos converts registry capabilities to the model's tool descriptors.
func ToolInfos(tools []tool.Tool) []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		params := parseJSONSchemaToParams(t.Parameters())
		infos = append(infos, &schema.ToolInfo{
			Name:        t.ID(),
			Desc:        t.Description(),
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		})
	}
	return infos
}

// parseJSONSchemaToParams converts JSON Schema to Eino ParameterInfo.
func parseJSONSchemaToParams(schemaJSON json.RawMessage) map[string]*schema.ParameterInfo {
	var jsonSchema struct {
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"properties"`
		Required []string `json:"required"`
	}

	if err := json.Unmarshal(schemaJSON, &jsonSchema); err != nil {
		return nil
	}

	requiredSet := make(map[string]bool)
	for _, r := range jsonSchema.Required {
		requiredSet[r] = true
	}

	params := make(map[string]*schema.ParameterInfo)
	for name, prop := range jsonSchema.Properties {
		paramType := schema.String
		switch prop.Type {
		case "integer":
			paramType = schema.Integer
		case "number":
			paramType = schema.Number
		case "boolean":
			paramType = schema.Boolean
		case "array":
			paramType = schema.Array
		case "object":
			paramType = schema.Object
		}

		params[name] = &schema.ParameterInfo{
			Type:     paramType,
			Desc:     prop.Description,
			Required: requiredSet[name],
		}
	}

	return params
}
