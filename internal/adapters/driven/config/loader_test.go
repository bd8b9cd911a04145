package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
)

// clearEnv blanks every recognised variable so tests see only what
// they set themselves.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ADDR", "SECRET_TOKEN", "GITHUB_TOKEN", "GITHUB_USERNAME",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
		"OPENROUTER_API_KEY", "OPENROUTER_URL", "STORE_PATH",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aideployer.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("returns defaults when nothing is configured", func(t *testing.T) {
		clearEnv(t)

		settings, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, domain.DefaultServerAddr, settings.Server.Addr)
		assert.Equal(t, domain.DefaultOpenRouterURL, settings.Providers.OpenRouterURL)
		assert.Equal(t, domain.DefaultStorePath, settings.Store.Path)
		assert.Equal(t, domain.DefaultModelPreferences().Models, settings.Preferences.Models)
	})

	t.Run("loads settings from TOML file", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, `
[server]
addr = ":9090"
secret_token = "file-secret"

[github]
token = "ghp_file_token"
username = "file-user"

[providers]
openai_key = "sk-file"
openrouter_url = "https://openrouter.example.com/api/v1"

[preferences]
models = ["gpt-5", "claude-opus-4-1"]

[preferences.routing]
"gpt-5" = ["openrouter", "openai"]
"claude-opus-4-1" = ["anthropic"]

[store]
path = "/var/lib/aideployer/letters.db"
`)

		settings, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, ":9090", settings.Server.Addr)
		assert.Equal(t, "file-secret", settings.Server.SecretToken)
		assert.Equal(t, "ghp_file_token", settings.GitHub.Token)
		assert.Equal(t, "file-user", settings.GitHub.Username)
		assert.Equal(t, "sk-file", settings.Providers.OpenAIKey)
		assert.Equal(t, "https://openrouter.example.com/api/v1", settings.Providers.OpenRouterURL)
		assert.Equal(t, "/var/lib/aideployer/letters.db", settings.Store.Path)
		assert.Equal(t, []string{"gpt-5", "claude-opus-4-1"}, settings.Preferences.Models)
		assert.Equal(t, []domain.Provider{domain.ProviderOpenRouter, domain.ProviderOpenAI},
			settings.Preferences.Routing["gpt-5"])
		assert.Equal(t, []domain.Provider{domain.ProviderAnthropic},
			settings.Preferences.Routing["claude-opus-4-1"])
	})

	t.Run("environment overrides file", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, `
[server]
addr = ":9090"

[github]
username = "file-user"
`)
		t.Setenv("GITHUB_USERNAME", "env-user")

		settings, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "env-user", settings.GitHub.Username)
		assert.Equal(t, ":9090", settings.Server.Addr, "file value survives when env is silent")
	})

	t.Run("environment alone carries secrets", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SECRET_TOKEN", "env-secret")
		t.Setenv("GITHUB_TOKEN", "ghp_env_token")
		t.Setenv("GITHUB_USERNAME", "env-user")
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")

		settings, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, "env-secret", settings.Server.SecretToken)
		assert.Equal(t, "ghp_env_token", settings.GitHub.Token)
		assert.Equal(t, "env-user", settings.GitHub.Username)
		assert.Equal(t, "sk-ant-env", settings.Providers.AnthropicKey)
	})

	t.Run("missing explicit file errors", func(t *testing.T) {
		clearEnv(t)

		settings, err := Load(filepath.Join(t.TempDir(), "absent.toml"))

		assert.Nil(t, settings)
		assert.Error(t, err)
	})

	t.Run("malformed TOML errors", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, `[server`)

		settings, err := Load(path)

		assert.Nil(t, settings)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing")
	})

	t.Run("unknown provider in routing errors", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, `
[preferences.routing]
"gpt-5" = ["mystery-llm"]
`)

		settings, err := Load(path)

		assert.Nil(t, settings)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown provider")
	})
}
