package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/context-kit/contextkit/internal/domain"
)

func TestCodec_RoundTrip(t *testing.T) {
	cfg, err := domain.NewProviderConfig(domain.ProviderAzureOpenAI, "https://example.openai.azure.com", "gpt-4o", 0.3,
		domain.WithMaxTokens(1024),
		domain.WithAPIKey("secret"),
		domain.WithAPIVersion("2024-02-15-preview"),
	)
	require.NoError(t, err)

	s := domain.NewSession("user-1", cfg, "custom prompt", []string{"context.read", "pipeline.validate"})
	s.AddMessage(domain.NewUserMessage("validate the repo", map[string]any{"mode": "default"}))
	s.AddMessage(domain.NewAssistantMessage("done"))

	task := domain.NewTask(domain.ActionPrompt)
	require.NoError(t, task.Start())
	require.NoError(t, task.Succeed(domain.NewTextOutput("done"), domain.NewPipelineResultOutput(true, "ok", "", 0)))
	s.AddTask(task)

	data, err := encodeSession(s)
	require.NoError(t, err)

	decoded, err := decodeSession(data)
	require.NoError(t, err)

	assert.Equal(t, s.ID(), decoded.ID())
	assert.Equal(t, s.UserID(), decoded.UserID())
	assert.Equal(t, s.SystemPrompt(), decoded.SystemPrompt())
	assert.Equal(t, s.ActiveTools(), decoded.ActiveTools())
	assert.True(t, s.CreatedAt().Equal(decoded.CreatedAt()))
	assert.True(t, s.LastActivityAt().Equal(decoded.LastActivityAt()))

	gotCfg := decoded.ProviderConfig()
	assert.Equal(t, domain.ProviderAzureOpenAI, gotCfg.Kind())
	assert.Equal(t, "gpt-4o", gotCfg.Model())
	assert.Equal(t, 1024, gotCfg.MaxTokens())
	assert.Equal(t, "secret", gotCfg.APIKey())

	require.Len(t, decoded.Messages(), 2)
	assert.Equal(t, "validate the repo", decoded.Messages()[0].Content())
	assert.Equal(t, "default", decoded.Messages()[0].Metadata()["mode"])
	assert.Equal(t, domain.RoleAssistant, decoded.Messages()[1].Role())

	require.Len(t, decoded.Tasks(), 1)
	gotTask := decoded.Tasks()[0]
	assert.Equal(t, task.ID(), gotTask.ID())
	assert.Equal(t, domain.TaskSucceeded, gotTask.Status())
	require.NotNil(t, gotTask.FirstResponseAt())
	require.NotNil(t, gotTask.CompletedAt())
	require.Len(t, gotTask.Outputs(), 2)
	assert.Equal(t, "text", gotTask.Outputs()[0].OutputType())
	assert.Equal(t, "pipeline_result", gotTask.Outputs()[1].OutputType())
}

func TestDecodeSession_Corrupt(t *testing.T) {
	_, err := decodeSession([]byte(`{not json`))
	assert.Error(t, err)

	// Structurally valid JSON with an unparseable session id.
	_, err = decodeSession([]byte(`{"session_id":"nope","provider_config":{"provider":"ollama","endpoint":"http://x","model":"m","temperature":0.5}}`))
	assert.Error(t, err)
}

func TestDecodeSession_UnknownOutputType(t *testing.T) {
	cfg, err := domain.NewProviderConfig(domain.ProviderOllama, "http://localhost:11434", "llama3.1", 0.7)
	require.NoError(t, err)

	s := domain.NewSession("user-1", cfg, "", nil)
	task := domain.NewTask(domain.ActionPrompt)
	require.NoError(t, task.Succeed(domain.NewTextOutput("ok")))
	s.AddTask(task)

	data, err := encodeSession(s)
	require.NoError(t, err)

	tampered := strings.Replace(string(data), `"type":"text"`, `"type":"hologram"`, 1)

	_, err = decodeSession([]byte(tampered))
	assert.Error(t, err)
}

func TestLastActivityOf(t *testing.T) {
	cfg, err := domain.NewProviderConfig(domain.ProviderOllama, "http://localhost:11434", "llama3.1", 0.7)
	require.NoError(t, err)

	s := domain.NewSession("user-1", cfg, "", nil)
	data, err := encodeSession(s)
	require.NoError(t, err)

	got, err := lastActivityOf(data)
	require.NoError(t, err)
	assert.True(t, s.LastActivityAt().Equal(got))

	_, err = lastActivityOf([]byte(`garbage`))
	assert.Error(t, err)

	var zero time.Time
	probe, err := lastActivityOf([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, zero, probe)
}
