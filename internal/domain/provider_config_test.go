package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderConfig_Valid(t *testing.T) {
	cfg, err := NewProviderConfig(ProviderAzureOpenAI, "https://example.openai.azure.com", "gpt-4o", 0.7,
		WithMaxTokens(2048),
		WithAPIKey("secret"),
		WithAPIVersion("2024-02-15-preview"),
	)
	require.NoError(t, err)

	assert.Equal(t, ProviderAzureOpenAI, cfg.Kind())
	assert.Equal(t, "https://example.openai.azure.com", cfg.Endpoint())
	assert.Equal(t, "gpt-4o", cfg.Model())
	assert.Equal(t, 0.7, cfg.Temperature())
	assert.Equal(t, 2048, cfg.MaxTokens())
	assert.Equal(t, "secret", cfg.APIKey())
	assert.Equal(t, "2024-02-15-preview", cfg.APIVersion())
}

func TestNewProviderConfig_TemperatureBounds(t *testing.T) {
	for _, temp := range []float64{0.0, 1.0, 2.0} {
		_, err := NewProviderConfig(ProviderOllama, "http://localhost:11434", "llama3.1", temp)
		assert.NoError(t, err, "temperature %g should be accepted", temp)
	}

	for _, temp := range []float64{-0.1, 2.1, 10} {
		_, err := NewProviderConfig(ProviderOllama, "http://localhost:11434", "llama3.1", temp)
		assert.Error(t, err, "temperature %g should be rejected", temp)
	}
}

func TestNewProviderConfig_Invalid(t *testing.T) {
	_, err := NewProviderConfig("openai", "http://localhost", "model", 0.5)
	assert.Error(t, err, "unknown kind")

	_, err = NewProviderConfig(ProviderOllama, "   ", "model", 0.5)
	assert.Error(t, err, "blank endpoint")

	_, err = NewProviderConfig(ProviderOllama, "http://localhost", "", 0.5)
	assert.Error(t, err, "empty model")

	_, err = NewProviderConfig(ProviderOllama, "http://localhost", "model", 0.5, WithMaxTokens(0))
	assert.Error(t, err, "non-positive max tokens")

	_, err = NewProviderConfig(ProviderOllama, "http://localhost", "model", 0.5, WithMaxTokens(-5))
	assert.Error(t, err, "negative max tokens")
}

func TestNewProviderConfig_TrimsWhitespace(t *testing.T) {
	cfg, err := NewProviderConfig(ProviderOllama, "  http://localhost:11434  ", "  llama3.1  ", 0.5)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", cfg.Endpoint())
	assert.Equal(t, "llama3.1", cfg.Model())
}

func TestParseProviderKind(t *testing.T) {
	kind, err := ParseProviderKind("azure-openai")
	require.NoError(t, err)
	assert.Equal(t, ProviderAzureOpenAI, kind)

	_, err = ParseProviderKind("gpt")
	assert.Error(t, err)
}
