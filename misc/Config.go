package misc

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// OpenAIConfig is the provider section of the config file. The API key
// and base URL can also come from the OPENAI_API_KEY / OPENAI_BASE_URL
// environment variables; resolution happens at client construction.
type OpenAIConfig struct {
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`
	UserAgent string `toml:"user_agent"`
	// APIMode selects the wire API: "responses" (default) or "chat".
	APIMode string `toml:"api_mode"`
}

// ModelConfig is the default model selection and sampling settings.
type ModelConfig struct {
	Name        string  `toml:"name"`
	Temperature float64 `toml:"temperature"`
	TopP        float64 `toml:"top_p"`
	MaxTokens   int64   `toml:"max_tokens"`
	MaxRetries  int     `toml:"max_retries"`
}

// Config is the full TOML configuration surface.
type Config struct {
	OpenAI OpenAIConfig `toml:"openai"`
	Model  ModelConfig  `toml:"model"`
}

// DefaultConfig returns the stock settings used when a key is absent
// from the config file.
func DefaultConfig() Config {
	return Config{
		OpenAI: OpenAIConfig{
			UserAgent: "AgentRelay",
			APIMode:   "responses",
		},
		Model: ModelConfig{
			Name:        "gpt-4o",
			Temperature: 0.5,
			TopP:        1,
			MaxTokens:   4096,
			MaxRetries:  10,
		},
	}
}

// LoadConfig reads a TOML config file over the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
