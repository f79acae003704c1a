package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// pipelineTimeout bounds every pipeline subprocess.
const pipelineTimeout = 30 * time.Second

// pipelineResult is the structured result of one pipeline run.
type pipelineResult struct {
	Success  bool   `json:"success"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode int    `json:"exit_code"`
	Error    string `json:"error,omitempty"`
}

// runPipeline executes a pipeline command in the repository directory and
// captures its output. Subprocess failure is reported inside the result, not
// as an execution error, so the model can read and react to it.
func runPipeline(ctx context.Context, repoPath string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pipelineTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "pnpm", args...)
	cmd.Dir = repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := pipelineResult{
		Success: err == nil,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.Error = fmt.Sprintf("pipeline execution timed out (%s limit)", pipelineTimeout)
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.Error = err.Error()
	}

	out, merr := json.Marshal(result)
	if merr != nil {
		return "", merr
	}
	return string(out), nil
}

var emptyParams = json.RawMessage(`{"type": "object", "properties": {}}`)

// NewPipelineValidateTool creates pipeline.validate.
func NewPipelineValidateTool(repoPath string) Tool {
	return NewBaseTool(
		"pipeline.validate",
		"Validate all context entities in the repository against their JSON schemas. Returns validation results with any errors found.",
		emptyParams,
		func(ctx context.Context, args map[string]any) (string, error) {
			return runPipeline(ctx, repoPath, "validate")
		},
	)
}

// NewPipelineBuildGraphTool creates pipeline.build-graph.
func NewPipelineBuildGraphTool(repoPath string) Tool {
	return NewBaseTool(
		"pipeline.build-graph",
		"Build the dependency graph from context entities. Analyzes relationships and generates graph visualization data.",
		emptyParams,
		func(ctx context.Context, args map[string]any) (string, error) {
			return runPipeline(ctx, repoPath, "build-graph")
		},
	)
}

var pipelineImpactParams = json.RawMessage(`{
  "type": "object",
  "properties": {
    "entity_ids": {"type": "array", "description": "List of entity IDs to analyze impact for"}
  },
  "required": ["entity_ids"]
}`)

// NewPipelineImpactTool creates pipeline.impact.
func NewPipelineImpactTool(repoPath string) Tool {
	return NewBaseTool(
		"pipeline.impact",
		"Analyze impact of changes to specific entities. Shows which other entities depend on the specified ones.",
		pipelineImpactParams,
		func(ctx context.Context, args map[string]any) (string, error) {
			ids := stringSliceArg(args, "entity_ids")
			if len(ids) == 0 {
				return "", fmt.Errorf("entity_ids is required")
			}
			return runPipeline(ctx, repoPath, "impact", "--entities", strings.Join(ids, ","))
		},
	)
}

var pipelineGenerateParams = json.RawMessage(`{
  "type": "object",
  "properties": {
    "template": {"type": "string", "description": "Template name to generate from"},
    "output_path": {"type": "string", "description": "Output file path (optional)"}
  },
  "required": ["template"]
}`)

// NewPipelineGenerateTool creates pipeline.generate.
func NewPipelineGenerateTool(repoPath string) Tool {
	return NewBaseTool(
		"pipeline.generate",
		"Generate output from a template using context repository data. Useful for creating documentation, reports, or code from templates.",
		pipelineGenerateParams,
		func(ctx context.Context, args map[string]any) (string, error) {
			template := stringArg(args, "template")
			if template == "" {
				return "", fmt.Errorf("template is required")
			}
			cmdArgs := []string{"generate", "--template", template}
			if out := stringArg(args, "output_path"); out != "" {
				cmdArgs = append(cmdArgs, "--output", out)
			}
			return runPipeline(ctx, repoPath, cmdArgs...)
		},
	)
}
