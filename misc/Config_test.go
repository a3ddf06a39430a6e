package misc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "responses", cfg.OpenAI.APIMode)
	require.Equal(t, "gpt-4o", cfg.Model.Name)
	require.Equal(t, int64(4096), cfg.Model.MaxTokens)
	require.Equal(t, 10, cfg.Model.MaxRetries)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[openai]
api_key = "sk-test"
api_mode = "chat"

[model]
name = "o4-mini"
max_retries = 5
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	require.Equal(t, "chat", cfg.OpenAI.APIMode)
	require.Equal(t, "o4-mini", cfg.Model.Name)
	require.Equal(t, 5, cfg.Model.MaxRetries)
	// Untouched keys keep their defaults.
	require.Equal(t, int64(4096), cfg.Model.MaxTokens)
	require.Equal(t, "AgentRelay", cfg.OpenAI.UserAgent)
}

func TestLoadConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
}
