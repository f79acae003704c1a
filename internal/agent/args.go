package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// parseToolArguments decodes a tool call's JSON argument payload.
func parseToolArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return args, nil
}

// isEOF reports whether a stream error means normal exhaustion.
func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
