package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/context-kit/contextkit/internal/domain"
	"github.com/context-kit/contextkit/internal/logging"
)

const defaultAzureAPIVersion = "2024-02-15-preview"

// Factory builds providers from validated provider configurations and caches
// them by a composite key, so a chat model is constructed once per distinct
// configuration rather than once per request.
type Factory struct {
	mu    sync.Mutex
	cache map[string]Provider
}

// NewFactory creates an empty provider factory.
func NewFactory() *Factory {
	return &Factory{cache: make(map[string]Provider)}
}

// Get returns the provider for the given configuration, building and caching
// the underlying chat model on first use.
func (f *Factory) Get(ctx context.Context, cfg domain.ProviderConfig) (Provider, error) {
	key := cacheKey(cfg)

	f.mu.Lock()
	defer f.mu.Unlock()

	if p, ok := f.cache[key]; ok {
		return p, nil
	}

	p, err := f.build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	f.cache[key] = p

	logging.Info().
		Str("provider", string(cfg.Kind())).
		Str("model", cfg.Model()).
		Msg("provider initialized")
	return p, nil
}

func (f *Factory) build(ctx context.Context, cfg domain.ProviderConfig) (Provider, error) {
	switch cfg.Kind() {
	case domain.ProviderAzureOpenAI:
		return buildAzure(ctx, cfg)
	case domain.ProviderOllama:
		return buildOllama(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported provider kind: %s", cfg.Kind())
	}
}

func buildAzure(ctx context.Context, cfg domain.ProviderConfig) (Provider, error) {
	if cfg.APIKey() == "" {
		return nil, fmt.Errorf("azure-openai requires an API key")
	}

	apiVersion := cfg.APIVersion()
	if apiVersion == "" {
		apiVersion = defaultAzureAPIVersion
	}

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:     cfg.APIKey(),
		BaseURL:    cfg.Endpoint(),
		Model:      cfg.Model(),
		ByAzure:    true,
		APIVersion: apiVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create azure-openai model: %w", err)
	}

	return &einoProvider{chatModel: chatModel, config: cfg}, nil
}

func buildOllama(ctx context.Context, cfg domain.ProviderConfig) (Provider, error) {
	// Ollama speaks the OpenAI-compatible API under /v1.
	baseURL := strings.TrimSuffix(cfg.Endpoint(), "/") + "/v1"

	apiKey := cfg.APIKey()
	if apiKey == "" {
		// The client requires a key; Ollama ignores its value.
		apiKey = "ollama"
	}

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   cfg.Model(),
	})
	if err != nil {
		return nil, fmt.Errorf("create ollama model: %w", err)
	}

	return &einoProvider{chatModel: chatModel, config: cfg}, nil
}

func cacheKey(cfg domain.ProviderConfig) string {
	return strings.Join([]string{
		string(cfg.Kind()),
		cfg.Endpoint(),
		cfg.Model(),
		cfg.APIVersion(),
		fmt.Sprintf("%g", cfg.Temperature()),
		fmt.Sprintf("%d", cfg.MaxTokens()),
	}, "|")
}
