// Package config assembles the application configuration from defaults, an
// optional JSONC config file and environment variables, in that priority
// order.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"

	"github.com/context-kit/contextkit/internal/domain"
	"github.com/context-kit/contextkit/pkg/types"
)

// Defaults returns the baseline configuration.
func Defaults() *types.Config {
	return &types.Config{
		Server: types.ServerConfig{
			Port:       8000,
			EnableCORS: true,
		},
		Log: types.LogConfig{
			Level: "info",
		},
		Storage: types.StorageConfig{
			Backend: "memory",
		},
		Redis: types.RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Session: types.SessionConfig{
			MaxAgeHours:            24,
			CleanupIntervalMinutes: 60,
		},
		Provider: types.AIProviderConfig{
			Kind:        "ollama",
			Endpoint:    "http://localhost:11434",
			Model:       "llama3.1",
			Temperature: 0.7,
		},
		ContextRepoPath: ".",
	}
}

// Load builds the configuration. A non-empty path names a JSONC config file;
// an empty path skips the file layer. A .env file in the working directory is
// loaded first so that env overrides pick it up.
func Load(path string) (*types.Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges a JSONC config file into cfg. {env:VAR} placeholders are
// interpolated before parsing.
func loadFile(path string, cfg *types.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	data = jsonc.ToJSON(data)
	data = interpolate(data)

	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

var envPattern = regexp.MustCompile(`\{env:([^}]+)\}`)

// interpolate replaces {env:VAR_NAME} placeholders with the variable's value.
func interpolate(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// applyEnvOverrides applies CONTEXTKIT_* environment variables on top of the
// file and default layers.
func applyEnvOverrides(cfg *types.Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setInt("CONTEXTKIT_PORT", &cfg.Server.Port)
	setBool("CONTEXTKIT_ENABLE_CORS", &cfg.Server.EnableCORS)
	setString("CONTEXTKIT_LOG_LEVEL", &cfg.Log.Level)
	setBool("CONTEXTKIT_LOG_PRETTY", &cfg.Log.Pretty)
	setString("CONTEXTKIT_STORAGE_BACKEND", &cfg.Storage.Backend)
	setString("CONTEXTKIT_REDIS_HOST", &cfg.Redis.Host)
	setInt("CONTEXTKIT_REDIS_PORT", &cfg.Redis.Port)
	setString("CONTEXTKIT_REDIS_PASSWORD", &cfg.Redis.Password)
	setInt("CONTEXTKIT_REDIS_DB", &cfg.Redis.DB)
	setInt("CONTEXTKIT_SESSION_MAX_AGE_HOURS", &cfg.Session.MaxAgeHours)
	setInt("CONTEXTKIT_CLEANUP_INTERVAL_MINUTES", &cfg.Session.CleanupIntervalMinutes)
	setString("CONTEXTKIT_PROVIDER_KIND", &cfg.Provider.Kind)
	setString("CONTEXTKIT_PROVIDER_ENDPOINT", &cfg.Provider.Endpoint)
	setString("CONTEXTKIT_PROVIDER_MODEL", &cfg.Provider.Model)
	setInt("CONTEXTKIT_PROVIDER_MAX_TOKENS", &cfg.Provider.MaxTokens)
	setString("CONTEXTKIT_PROVIDER_API_VERSION", &cfg.Provider.APIVersion)
	setString("CONTEXTKIT_CONTEXT_REPO_PATH", &cfg.ContextRepoPath)

	if v := os.Getenv("CONTEXTKIT_PROVIDER_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Provider.Temperature = f
		}
	}

	// API keys come from the conventional variables first.
	setString("AZURE_OPENAI_API_KEY", &cfg.Provider.APIKey)
	setString("CONTEXTKIT_PROVIDER_API_KEY", &cfg.Provider.APIKey)
}

// Validate rejects configurations the process could not run with.
func Validate(cfg *types.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}

	switch strings.ToLower(cfg.Storage.Backend) {
	case "memory", "redis", "":
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Session.MaxAgeHours <= 0 {
		return fmt.Errorf("session max age must be positive, got %d", cfg.Session.MaxAgeHours)
	}
	if cfg.Session.CleanupIntervalMinutes <= 0 {
		return fmt.Errorf("cleanup interval must be positive, got %d", cfg.Session.CleanupIntervalMinutes)
	}

	if _, err := DefaultProviderConfig(cfg); err != nil {
		return err
	}
	return nil
}

// DefaultProviderConfig builds the domain-level provider configuration that
// sessions fall back to when created without an explicit one.
func DefaultProviderConfig(cfg *types.Config) (domain.ProviderConfig, error) {
	return ProviderConfigFrom(cfg.Provider)
}

// ProviderConfigFrom converts a wire-level provider configuration into the
// validated domain form.
func ProviderConfigFrom(p types.AIProviderConfig) (domain.ProviderConfig, error) {
	kind, err := domain.ParseProviderKind(p.Kind)
	if err != nil {
		return domain.ProviderConfig{}, err
	}

	opts := []domain.ProviderOption{}
	if p.MaxTokens > 0 {
		opts = append(opts, domain.WithMaxTokens(p.MaxTokens))
	}
	if p.APIKey != "" {
		opts = append(opts, domain.WithAPIKey(p.APIKey))
	}
	if p.APIVersion != "" {
		opts = append(opts, domain.WithAPIVersion(p.APIVersion))
	}

	return domain.NewProviderConfig(kind, p.Endpoint, p.Model, p.Temperature, opts...)
}
