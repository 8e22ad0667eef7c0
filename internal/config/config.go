// Package config provides application configuration with multi-source
// priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (SKEIN_* overrides, DATABASE_URL)
//  2. Config file (~/.skein/config.yaml)
//  3. Default values
//
// Sensitive fields (passwords, API keys) are masked in MarshalJSON and
// String, so a logged Config never leaks secrets. Validation runs at
// load time and returns sentinel errors checkable with errors.Is.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	// genkit plugin prefix for Gemini models
	providerGoogleAI = "googleai"
)

const (
	// DefaultEmbedderModel outputs 3072 dimensions by default but
	// supports truncation to 768 via OutputDimensionality. The pgvector
	// schema stores 768; see knowledge.VectorDimension.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultMaxFunctionCalls bounds tool calls per task.
	DefaultMaxFunctionCalls = 10

	// MaxAllowedFunctionCalls is the hard ceiling for the per-task
	// tool call bound.
	MaxAllowedFunctionCalls = 50
)

// Config stores application configuration.
// When adding sensitive fields, update MarshalJSON.
type Config struct {
	// Model selection
	Provider  string `mapstructure:"provider" json:"provider"` // "gemini" (default), "ollama", "openai"
	ModelName string `mapstructure:"model_name" json:"model_name"`

	// Ollama endpoint, used only when provider is "ollama"
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Agent loop
	MaxFunctionCalls int    `mapstructure:"max_function_calls" json:"max_function_calls"`
	SystemPrompt     string `mapstructure:"system_prompt" json:"system_prompt"`

	// Workspace is the directory file tools may touch. Empty means the
	// current working directory at startup.
	Workspace string `mapstructure:"workspace" json:"workspace"`

	// Retrieval
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`
	RAGTopK       int    `mapstructure:"rag_top_k" json:"rag_top_k"`

	// Storage (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// External tool servers (see mcp.go)
	MCPServers []MCPServerConfig `mapstructure:"mcp_servers" json:"mcp_servers"`

	// Tracing (see observability.go)
	Otel OtelConfig `mapstructure:"otel" json:"otel"`
}

// Dir returns the configuration directory (~/.skein), creating it if
// needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home directory: %w", err)
	}
	dir := filepath.Join(home, ".skein")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return dir, nil
}

// Load reads configuration from all sources and validates it.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL wins over individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("ollama_host", "http://localhost:11434")

	v.SetDefault("max_function_calls", DefaultMaxFunctionCalls)

	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("rag_top_k", 5)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "skein")
	v.SetDefault("postgres_password", "skein_dev_password")
	v.SetDefault("postgres_db_name", "skein")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.service_name", "skein")
	v.SetDefault("otel.environment", "dev")
}

// bindEnvVariables binds runtime overrides. Provider API keys
// (GEMINI_API_KEY, OPENAI_API_KEY) are read directly by the genkit
// plugins, not through viper; Validate only checks their presence.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "SKEIN_PROVIDER")
	mustBind("model_name", "SKEIN_MODEL_NAME")
	mustBind("ollama_host", "SKEIN_OLLAMA_HOST")
	mustBind("embedder_model", "SKEIN_EMBEDDER_MODEL")
	mustBind("workspace", "SKEIN_WORKSPACE")
	mustBind("otel.endpoint", "SKEIN_OTEL_ENDPOINT")
}

// maskedValue avoids substring leaks: plain "****" style placeholders
// failed when the secret itself contained the mask characters.
const maskedValue = "████████"

// maskSecret masks a secret for safe logging. Short secrets are fully
// masked; longer ones keep two characters on each end for debugging.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON masks sensitive fields explicitly.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}

// FullModelName returns the plugin-qualified model name for genkit.
// Examples: "googleai/gemini-2.5-flash", "ollama/llama3.3",
// "openai/gpt-4o". A ModelName already containing "/" is kept as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	switch c.Provider {
	case ProviderOllama:
		return ProviderOllama + "/" + c.ModelName
	case ProviderOpenAI:
		return ProviderOpenAI + "/" + c.ModelName
	default:
		return providerGoogleAI + "/" + c.ModelName
	}
}

// FullEmbedderName returns the plugin-qualified embedder name.
func (c *Config) FullEmbedderName() string {
	if strings.Contains(c.EmbedderModel, "/") {
		return c.EmbedderModel
	}
	switch c.Provider {
	case ProviderOllama:
		return ProviderOllama + "/" + c.EmbedderModel
	case ProviderOpenAI:
		return ProviderOpenAI + "/" + c.EmbedderModel
	default:
		return providerGoogleAI + "/" + c.EmbedderModel
	}
}
