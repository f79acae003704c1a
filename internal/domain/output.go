package domain

import (
	"encoding/json"
	"fmt"
)

// Output is one record in a task's output list. It is a closed union:
// TextOutput, PipelineResultOutput, FileContentOutput or ErrorOutput. Each
// variant serializes to an open JSON object tagged with a "type" field.
type Output interface {
	// OutputType returns the wire tag for this variant.
	OutputType() string
}

// TextOutput carries final assistant text.
type TextOutput struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// NewTextOutput creates a text output record.
func NewTextOutput(content string) *TextOutput {
	return &TextOutput{Type: "text", Content: content}
}

func (o *TextOutput) OutputType() string { return "text" }

// PipelineResultOutput carries the result of a pipeline execution.
type PipelineResultOutput struct {
	Type     string `json:"type"`
	Success  bool   `json:"success"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode int    `json:"exitCode"`
}

// NewPipelineResultOutput creates a pipeline result record.
func NewPipelineResultOutput(success bool, stdout, stderr string, exitCode int) *PipelineResultOutput {
	return &PipelineResultOutput{
		Type:     "pipeline_result",
		Success:  success,
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
	}
}

func (o *PipelineResultOutput) OutputType() string { return "pipeline_result" }

// FileContentOutput carries the content of a read file.
type FileContentOutput struct {
	Type    string `json:"type"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

// NewFileContentOutput creates a file content record.
func NewFileContentOutput(path, content string) *FileContentOutput {
	return &FileContentOutput{Type: "file_content", Path: path, Content: content}
}

func (o *FileContentOutput) OutputType() string { return "file_content" }

// ErrorOutput carries an error description.
type ErrorOutput struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// NewErrorOutput creates an error output record.
func NewErrorOutput(content string) *ErrorOutput {
	return &ErrorOutput{Type: "error", Content: content}
}

func (o *ErrorOutput) OutputType() string { return "error" }

// UnmarshalOutput unmarshals a JSON output record into the matching variant.
func UnmarshalOutput(data []byte) (Output, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, err
	}

	switch tag.Type {
	case "text":
		var o TextOutput
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, err
		}
		return &o, nil
	case "pipeline_result":
		var o PipelineResultOutput
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, err
		}
		return &o, nil
	case "file_content":
		var o FileContentOutput
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, err
		}
		return &o, nil
	case "error":
		var o ErrorOutput
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, err
		}
		return &o, nil
	default:
		return nil, fmt.Errorf("unknown output type: %q", tag.Type)
	}
}
