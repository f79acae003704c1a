// Package types contains the wire-level types exposed by the service:
// application configuration, task DTOs, stream events and the capability
// profile.
package types

// Config is the application configuration, assembled from config files,
// environment variables and defaults.
type Config struct {
	Server   ServerConfig     `json:"server"`
	Log      LogConfig        `json:"log"`
	Storage  StorageConfig    `json:"storage"`
	Redis    RedisConfig      `json:"redis"`
	Session  SessionConfig    `json:"session"`
	Provider AIProviderConfig `json:"provider"`
	// ContextRepoPath points at the context repository the built-in tools
	// read from.
	ContextRepoPath string `json:"contextRepoPath"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port       int  `json:"port"`
	EnableCORS bool `json:"enableCors"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `json:"level"`
	Pretty bool   `json:"pretty"`
}

// StorageConfig selects the session repository backend.
type StorageConfig struct {
	// Backend is "memory" or "redis".
	Backend string `json:"backend"`
}

// RedisConfig holds connection parameters for the redis backend.
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// SessionConfig holds session lifecycle settings.
type SessionConfig struct {
	// MaxAgeHours bounds session idle age; it also sets the redis TTL.
	MaxAgeHours int `json:"maxAgeHours"`
	// CleanupIntervalMinutes is how often the expiration sweep runs.
	CleanupIntervalMinutes int `json:"cleanupIntervalMinutes"`
}

// AIProviderConfig is the default model provider configuration applied to
// sessions created without an explicit one.
type AIProviderConfig struct {
	// Kind is "azure-openai" or "ollama".
	Kind        string  `json:"kind"`
	Endpoint    string  `json:"endpoint"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
	APIKey      string  `json:"apiKey,omitempty"`
	APIVersion  string  `json:"apiVersion,omitempty"`
}
