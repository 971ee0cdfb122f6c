// Package config provides configuration management for Almanac. Settings
// come from three layers, lowest precedence first: built-in defaults, an
// optional YAML file, and environment variables with the ALMANAC_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the Almanac application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	LLM       LLMConfig       `yaml:"llm"`
	Security  SecurityConfig  `yaml:"security"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Features  FeaturesConfig  `yaml:"features"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"` // Server port (default: 8080)
	Host string `yaml:"host"` // Server host (default: 127.0.0.1)
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	Engine      string `yaml:"engine"`       // Storage engine: sqlite, postgres (default: sqlite)
	DataPath    string `yaml:"data_path"`    // SQLite data directory (default: ./data)
	PostgresDSN string `yaml:"postgres_dsn"` // Postgres connection string
}

// LLMConfig contains LLM provider configuration.
type LLMConfig struct {
	Provider        string `yaml:"provider"`          // ollama, openai, anthropic (default: ollama)
	OllamaURL       string `yaml:"ollama_url"`        // Ollama API URL (default: http://localhost:11434)
	OllamaModel     string `yaml:"ollama_model"`      // Ollama model name (default: llama3.2)
	OpenAIAPIKey    string `yaml:"openai_api_key"`    // OpenAI API key
	OpenAIModel     string `yaml:"openai_model"`      // OpenAI model name (default: gpt-4o-mini)
	OpenAIBaseURL   string `yaml:"openai_base_url"`   // OpenAI-compatible base URL
	AnthropicAPIKey string `yaml:"anthropic_api_key"` // Anthropic API key
	AnthropicModel  string `yaml:"anthropic_model"`   // Anthropic model name
	TimeoutSeconds  int    `yaml:"timeout_seconds"`   // Completion timeout (default: 30)
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	Mode     string `yaml:"mode"`      // development or production (default: development)
	APIToken string `yaml:"api_token"` // Bearer token required in production mode
}

// RateLimitConfig throttles the natural-language endpoint, which fans out
// to the LLM and is the most expensive call in the system.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"` // Sustained rate (default: 60)
	Burst             int `yaml:"burst"`               // Burst allowance (default: 10)
}

// FeaturesConfig contains feature flags.
type FeaturesConfig struct {
	EnableREST      bool `yaml:"enable_rest"`      // Enable REST API (default: true)
	EnableMCP       bool `yaml:"enable_mcp"`       // Enable MCP server (default: true)
	EnableWebSocket bool `yaml:"enable_websocket"` // Enable mutation broadcast socket (default: true)
}

// LoadConfig loads configuration from defaults, the optional YAML file named
// by ALMANAC_CONFIG_FILE, and ALMANAC_-prefixed environment variables, in
// that precedence order.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("ALMANAC_CONFIG_FILE"); path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// LoadConfigFromFile is LoadConfig with an explicit YAML file path.
func LoadConfigFromFile(path string) (*Config, error) {
	cfg := defaultConfig()
	if err := mergeFile(cfg, path); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "127.0.0.1",
		},
		Storage: StorageConfig{
			Engine:   "sqlite",
			DataPath: "./data",
		},
		LLM: LLMConfig{
			Provider:       "ollama",
			OllamaURL:      "http://localhost:11434",
			OllamaModel:    "llama3.2",
			OpenAIModel:    "gpt-4o-mini",
			AnthropicModel: "claude-haiku-4-5-20251001",
			TimeoutSeconds: 30,
		},
		Security: SecurityConfig{
			Mode: "development",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			Burst:             10,
		},
		Features: FeaturesConfig{
			EnableREST:      true,
			EnableMCP:       true,
			EnableWebSocket: true,
		},
	}
}

// mergeFile overlays YAML file values onto cfg. Absent keys keep their
// current values.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays ALMANAC_ environment variables onto cfg.
func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnvInt("ALMANAC_PORT", cfg.Server.Port)
	cfg.Server.Host = getEnv("ALMANAC_HOST", cfg.Server.Host)

	cfg.Storage.Engine = getEnv("ALMANAC_STORAGE_ENGINE", cfg.Storage.Engine)
	cfg.Storage.DataPath = getEnv("ALMANAC_DATA_PATH", cfg.Storage.DataPath)
	cfg.Storage.PostgresDSN = getEnv("ALMANAC_POSTGRES_DSN", cfg.Storage.PostgresDSN)

	cfg.LLM.Provider = getEnv("ALMANAC_LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.OllamaURL = getEnv("ALMANAC_OLLAMA_URL", cfg.LLM.OllamaURL)
	cfg.LLM.OllamaModel = getEnv("ALMANAC_OLLAMA_MODEL", cfg.LLM.OllamaModel)
	cfg.LLM.OpenAIAPIKey = getEnv("ALMANAC_OPENAI_API_KEY", cfg.LLM.OpenAIAPIKey)
	cfg.LLM.OpenAIModel = getEnv("ALMANAC_OPENAI_MODEL", cfg.LLM.OpenAIModel)
	cfg.LLM.OpenAIBaseURL = getEnv("ALMANAC_OPENAI_BASE_URL", cfg.LLM.OpenAIBaseURL)
	cfg.LLM.AnthropicAPIKey = getEnv("ALMANAC_ANTHROPIC_API_KEY", cfg.LLM.AnthropicAPIKey)
	cfg.LLM.AnthropicModel = getEnv("ALMANAC_ANTHROPIC_MODEL", cfg.LLM.AnthropicModel)
	cfg.LLM.TimeoutSeconds = getEnvInt("ALMANAC_LLM_TIMEOUT_SECONDS", cfg.LLM.TimeoutSeconds)

	cfg.Security.Mode = getEnv("ALMANAC_SECURITY_MODE", cfg.Security.Mode)
	cfg.Security.APIToken = getEnv("ALMANAC_API_TOKEN", cfg.Security.APIToken)

	cfg.RateLimit.RequestsPerMinute = getEnvInt("ALMANAC_RATE_LIMIT_RPM", cfg.RateLimit.RequestsPerMinute)
	cfg.RateLimit.Burst = getEnvInt("ALMANAC_RATE_LIMIT_BURST", cfg.RateLimit.Burst)

	cfg.Features.EnableREST = getEnvBool("ALMANAC_ENABLE_REST", cfg.Features.EnableREST)
	cfg.Features.EnableMCP = getEnvBool("ALMANAC_ENABLE_MCP", cfg.Features.EnableMCP)
	cfg.Features.EnableWebSocket = getEnvBool("ALMANAC_ENABLE_WEBSOCKET", cfg.Features.EnableWebSocket)
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default
// value. It recognizes "true", "1", "yes" and "false", "0", "no".
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}
