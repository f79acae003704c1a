package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/context-kit/contextkit/internal/domain"
)

func TestCallOptions_ZeroTemperatureIsSent(t *testing.T) {
	cfg, err := domain.NewProviderConfig(domain.ProviderOllama, "http://localhost:11434", "llama3.1", 0.0)
	require.NoError(t, err)

	p := &einoProvider{config: cfg}
	assert.Len(t, p.callOptions(), 1, "temperature 0.0 must still produce a call option")
}

func TestCallOptions_IncludesMaxTokensWhenSet(t *testing.T) {
	cfg, err := domain.NewProviderConfig(domain.ProviderOllama, "http://localhost:11434", "llama3.1", 0.7,
		domain.WithMaxTokens(512))
	require.NoError(t, err)

	p := &einoProvider{config: cfg}
	assert.Len(t, p.callOptions(), 2)
}
