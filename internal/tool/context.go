package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// contextReadParams is the JSON Schema for context.read.
var contextReadParams = json.RawMessage(`{
  "type": "object",
  "properties": {
    "entity_type": {"type": "string", "description": "Entity type (e.g., 'feature', 'task', 'service')"},
    "entity_id": {"type": "string", "description": "Entity ID (filename without extension)"}
  },
  "required": ["entity_type", "entity_id"]
}`)

// contextSearchParams is the JSON Schema for context.search.
var contextSearchParams = json.RawMessage(`{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "Search query string"},
    "entity_type": {"type": "string", "description": "Entity type to filter by (optional)"}
  },
  "required": ["query"]
}`)

// NewContextReadTool creates the context.read capability. It reads one YAML
// entity from the context repository and returns its full data.
func NewContextReadTool(repoPath string) Tool {
	return NewBaseTool(
		"context.read",
		"Read a specific context entity from the repository. Returns the full entity data including metadata, relationships, and content.",
		contextReadParams,
		func(ctx context.Context, args map[string]any) (string, error) {
			entityType := stringArg(args, "entity_type")
			entityID := stringArg(args, "entity_id")
			if entityType == "" || entityID == "" {
				return "", fmt.Errorf("entity_type and entity_id are required")
			}

			entityPath := filepath.Join(repoPath, "contexts", entityType, entityID+".yaml")
			data, err := os.ReadFile(entityPath)
			if err != nil {
				if os.IsNotExist(err) {
					return "", fmt.Errorf("entity not found: %s/%s", entityType, entityID)
				}
				return "", fmt.Errorf("read entity: %w", err)
			}

			var parsed map[string]any
			if err := yaml.Unmarshal(data, &parsed); err != nil {
				return "", fmt.Errorf("parse entity %s/%s: %w", entityType, entityID, err)
			}

			result := map[string]any{
				"entity_type": entityType,
				"entity_id":   entityID,
				"data":        parsed,
				"path":        entityPath,
			}
			out, err := json.Marshal(result)
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	)
}

// NewContextSearchTool creates the context.search capability. It walks the
// repository's entity directories and matches the query against each
// entity's textual content.
func NewContextSearchTool(repoPath string) Tool {
	return NewBaseTool(
		"context.search",
		"Search for context entities by query string. Returns a list of matching entities with basic info.",
		contextSearchParams,
		func(ctx context.Context, args map[string]any) (string, error) {
			query := stringArg(args, "query")
			if query == "" {
				return "", fmt.Errorf("query is required")
			}
			entityType := stringArg(args, "entity_type")

			contextsDir := filepath.Join(repoPath, "contexts")
			searchTypes, err := resolveSearchTypes(contextsDir, entityType)
			if err != nil {
				return "", err
			}

			queryLower := strings.ToLower(query)
			results := []map[string]any{}

			for _, etype := range searchTypes {
				typeDir := filepath.Join(contextsDir, etype)
				entries, err := os.ReadDir(typeDir)
				if err != nil {
					continue
				}

				for _, entry := range entries {
					if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
						continue
					}

					data, err := os.ReadFile(filepath.Join(typeDir, entry.Name()))
					if err != nil {
						continue
					}
					var parsed map[string]any
					if err := yaml.Unmarshal(data, &parsed); err != nil {
						continue
					}
					if !strings.Contains(strings.ToLower(fmt.Sprint(parsed)), queryLower) {
						continue
					}

					id := strings.TrimSuffix(entry.Name(), ".yaml")
					name := id
					if n, ok := parsed["name"].(string); ok {
						name = n
					}
					summary := ""
					if s, ok := parsed["summary"].(string); ok {
						summary = truncate(s, 200)
					}
					results = append(results, map[string]any{
						"entity_type": etype,
						"entity_id":   id,
						"name":        name,
						"summary":     summary,
					})
				}
			}

			out, err := json.Marshal(results)
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	)
}

// resolveSearchTypes returns either the requested entity type or every type
// directory under contexts/.
func resolveSearchTypes(contextsDir, entityType string) ([]string, error) {
	if entityType != "" {
		return []string{entityType}, nil
	}

	entries, err := os.ReadDir(contextsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("context repository not found at %s", contextsDir)
		}
		return nil, fmt.Errorf("read context repository: %w", err)
	}

	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			out = append(out, entry.Name())
		}
	}
	return out, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
