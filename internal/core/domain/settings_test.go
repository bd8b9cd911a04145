package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() Settings {
	s := DefaultSettings()
	s.Server.SecretToken = "s3cret"
	s.GitHub.Token = "ghp_token"
	s.GitHub.Username = "acct"
	s.Providers.OpenAIKey = "sk-test"
	return s
}

// TestDefaultSettings tests stock configuration values
func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, DefaultServerAddr, s.Server.Addr)
	assert.Equal(t, DefaultOpenRouterURL, s.Providers.OpenRouterURL)
	assert.Equal(t, DefaultStorePath, s.Store.Path)
	require.NoError(t, s.Preferences.Validate())
}

// TestSettings_Validate tests startup validation
func TestSettings_Validate(t *testing.T) {
	t.Run("complete settings pass", func(t *testing.T) {
		assert.NoError(t, validSettings().Validate())
	})

	t.Run("missing secret token", func(t *testing.T) {
		s := validSettings()
		s.Server.SecretToken = ""
		assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
	})

	t.Run("missing github token", func(t *testing.T) {
		s := validSettings()
		s.GitHub.Token = ""
		assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
	})

	t.Run("missing github username", func(t *testing.T) {
		s := validSettings()
		s.GitHub.Username = ""
		assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
	})

	t.Run("no provider credentials", func(t *testing.T) {
		s := validSettings()
		s.Providers = ProviderSettings{OpenRouterURL: DefaultOpenRouterURL}
		assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
	})

	t.Run("broken preferences", func(t *testing.T) {
		s := validSettings()
		s.Preferences = ModelPreferences{}
		assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
	})
}

// TestProviderSettings_KeyFor tests credential lookup per provider
func TestProviderSettings_KeyFor(t *testing.T) {
	p := ProviderSettings{
		OpenAIKey:     "openai-key",
		AnthropicKey:  "anthropic-key",
		GeminiKey:     "gemini-key",
		OpenRouterKey: "openrouter-key",
	}

	assert.Equal(t, "openai-key", p.KeyFor(ProviderOpenAI))
	assert.Equal(t, "anthropic-key", p.KeyFor(ProviderAnthropic))
	assert.Equal(t, "gemini-key", p.KeyFor(ProviderGemini))
	assert.Equal(t, "openrouter-key", p.KeyFor(ProviderOpenRouter))
	assert.Equal(t, "", p.KeyFor(Provider("mystery")))
}
