// Package tool provides the capability framework the agent loop invokes on
// the model's behalf: a name-keyed registry and the built-in context
// repository and pipeline capabilities.
package tool

import (
	"context"
	"encoding/json"
)

// Tool is one invocable capability. Execute receives a structured argument
// map and returns a serialized result; a returned error becomes a
// tool-result message, never an aborted loop.
type Tool interface {
	// ID returns the capability identifier, e.g. "context.read".
	ID() string

	// Description returns the capability description shown to the model.
	Description() string

	// Parameters returns the JSON Schema for the argument map.
	Parameters() json.RawMessage

	// Execute runs the capability.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// BaseTool is a Tool built from plain values and a function.
type BaseTool struct {
	id          string
	description string
	parameters  json.RawMessage
	execute     func(ctx context.Context, args map[string]any) (string, error)
}

// NewBaseTool creates a tool from its parts.
func NewBaseTool(id, description string, params json.RawMessage, execute func(context.Context, map[string]any) (string, error)) *BaseTool {
	return &BaseTool{
		id:          id,
		description: description,
		parameters:  params,
		execute:     execute,
	}
}

func (t *BaseTool) ID() string                  { return t.id }
func (t *BaseTool) Description() string         { return t.description }
func (t *BaseTool) Parameters() json.RawMessage { return t.parameters }

func (t *BaseTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return t.execute(ctx, args)
}

// stringArg extracts an optional string argument.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// stringSliceArg extracts a list-of-strings argument, tolerating the
// []any shape JSON decoding produces.
func stringSliceArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
