package domain

import (
	"fmt"
	"strings"
)

// ProviderKind identifies the language-model backend family.
type ProviderKind string

const (
	// ProviderAzureOpenAI is the managed cloud provider.
	ProviderAzureOpenAI ProviderKind = "azure-openai"
	// ProviderOllama is the locally hosted provider.
	ProviderOllama ProviderKind = "ollama"
)

// ParseProviderKind validates a provider kind string.
func ParseProviderKind(s string) (ProviderKind, error) {
	switch ProviderKind(s) {
	case ProviderAzureOpenAI, ProviderOllama:
		return ProviderKind(s), nil
	}
	return "", fmt.Errorf("unknown provider kind: %q", s)
}

// ProviderConfig is an immutable, validated provider configuration.
// Construct it with NewProviderConfig; the zero value is not usable.
type ProviderConfig struct {
	kind         ProviderKind
	endpoint     string
	model        string
	temperature  float64
	maxTokens    int
	maxTokensSet bool
	apiKey       string
	apiVersion   string
}

// ProviderOption customizes optional ProviderConfig fields.
type ProviderOption func(*ProviderConfig)

// WithMaxTokens caps the number of generated tokens. Must be positive.
func WithMaxTokens(n int) ProviderOption {
	return func(c *ProviderConfig) {
		c.maxTokens = n
		c.maxTokensSet = true
	}
}

// WithAPIKey sets the provider credential.
func WithAPIKey(key string) ProviderOption {
	return func(c *ProviderConfig) { c.apiKey = key }
}

// WithAPIVersion sets the provider API version.
func WithAPIVersion(v string) ProviderOption {
	return func(c *ProviderConfig) { c.apiVersion = v }
}

// NewProviderConfig builds a validated provider configuration.
// Invalid values fail construction; nothing is clamped.
func NewProviderConfig(kind ProviderKind, endpoint, model string, temperature float64, opts ...ProviderOption) (ProviderConfig, error) {
	cfg := ProviderConfig{
		kind:        kind,
		endpoint:    strings.TrimSpace(endpoint),
		model:       strings.TrimSpace(model),
		temperature: temperature,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := ParseProviderKind(string(kind)); err != nil {
		return ProviderConfig{}, err
	}
	if cfg.endpoint == "" {
		return ProviderConfig{}, fmt.Errorf("endpoint cannot be empty")
	}
	if cfg.model == "" {
		return ProviderConfig{}, fmt.Errorf("model cannot be empty")
	}
	if temperature < 0.0 || temperature > 2.0 {
		return ProviderConfig{}, fmt.Errorf("temperature must be between 0.0 and 2.0, got %g", temperature)
	}
	if cfg.maxTokensSet && cfg.maxTokens <= 0 {
		return ProviderConfig{}, fmt.Errorf("max tokens must be positive, got %d", cfg.maxTokens)
	}

	return cfg, nil
}

// Kind returns the provider family.
func (c ProviderConfig) Kind() ProviderKind { return c.kind }

// Endpoint returns the provider endpoint URL.
func (c ProviderConfig) Endpoint() string { return c.endpoint }

// Model returns the model or deployment name.
func (c ProviderConfig) Model() string { return c.model }

// Temperature returns the sampling temperature.
func (c ProviderConfig) Temperature() float64 { return c.temperature }

// MaxTokens returns the output token cap, or 0 when unset.
func (c ProviderConfig) MaxTokens() int { return c.maxTokens }

// APIKey returns the provider credential, or "" when unset.
func (c ProviderConfig) APIKey() string { return c.apiKey }

// APIVersion returns the provider API version, or "" when unset.
func (c ProviderConfig) APIVersion() string { return c.apiVersion }
