package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v3/option"

	"AgentRelay/misc"
)

// requestOptions resolves credentials and endpoint for the SDK client.
// API key: explicit config value first, then OPENAI_API_KEY.
// Base URL: OPENAI_BASE_URL overrides the configured value, so a user
// can point the adapter at any OpenAI-compatible endpoint.
func requestOptions(cfg misc.Config) ([]option.RequestOption, error) {
	apiKey := strings.TrimSpace(cfg.OpenAI.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set OPENAI_API_KEY or [openai] api_key in the config file", ErrMissingAPIKey)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}

	baseURL := strings.TrimSpace(cfg.OpenAI.BaseURL)
	if env := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); env != "" {
		baseURL = env
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if ua := cfg.OpenAI.UserAgent; ua != "" {
		opts = append(opts, option.WithHeader("User-Agent", ua))
	}
	return opts, nil
}

// NewClientFromConfig builds a Client for the configured API mode:
// "responses" (default) or "chat".
func NewClientFromConfig(cfg misc.Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.OpenAI.APIMode))
	switch mode {
	case "", "responses":
		return NewOpenAIResponsesClient(cfg)
	case "chat":
		return NewOpenAIChatClient(cfg)
	default:
		return nil, fmt.Errorf("unknown api_mode %q (want \"responses\" or \"chat\")", cfg.OpenAI.APIMode)
	}
}
