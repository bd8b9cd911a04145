package domain

import "fmt"

// Settings holds all service configuration. Non-secret tuning may be
// loaded from a config file; credentials come from the environment and
// take precedence. Read-only after startup and shared across all
// concurrent pipeline runs.
type Settings struct {
	// Server holds HTTP front door settings.
	Server ServerSettings

	// GitHub holds repository host credentials.
	GitHub GitHubSettings

	// Providers holds generation provider credentials.
	Providers ProviderSettings

	// Preferences holds the model ranking and provider routing.
	Preferences ModelPreferences

	// Store holds local persistence settings.
	Store StoreSettings
}

// ServerSettings holds HTTP front door configuration.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string

	// SecretToken is the shared admission credential. Requests whose
	// secret does not match are rejected before the pipeline starts.
	SecretToken string
}

// GitHubSettings holds repository host credentials.
type GitHubSettings struct {
	// Token is the personal access token used for all host calls.
	Token string

	// Username is the account owning created repositories. It also
	// determines the public hosting URL.
	Username string
}

// ProviderSettings holds per-provider API credentials. A provider with
// an empty key is skipped by the fallback cascade.
type ProviderSettings struct {
	// OpenAIKey is the OpenAI API key.
	OpenAIKey string

	// AnthropicKey is the Anthropic API key.
	AnthropicKey string

	// GeminiKey is the Google Gemini API key.
	GeminiKey string

	// OpenRouterKey is the OpenRouter API key.
	OpenRouterKey string

	// OpenRouterURL is the OpenRouter endpoint base URL.
	OpenRouterURL string
}

// KeyFor returns the credential configured for a provider.
func (p ProviderSettings) KeyFor(provider Provider) string {
	switch provider {
	case ProviderOpenAI:
		return p.OpenAIKey
	case ProviderAnthropic:
		return p.AnthropicKey
	case ProviderGemini:
		return p.GeminiKey
	case ProviderOpenRouter:
		return p.OpenRouterKey
	default:
		return ""
	}
}

// StoreSettings holds local persistence configuration.
type StoreSettings struct {
	// Path is the SQLite database file backing the dead-letter store.
	Path string
}

// Default configuration values.
const (
	DefaultServerAddr    = ":8080"
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"
	DefaultStorePath     = "aideployer.db"
)

// DefaultSettings returns settings with stock defaults. Credentials are
// left empty and must be supplied by the environment.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Addr: DefaultServerAddr,
		},
		Providers: ProviderSettings{
			OpenRouterURL: DefaultOpenRouterURL,
		},
		Preferences: DefaultModelPreferences(),
		Store: StoreSettings{
			Path: DefaultStorePath,
		},
	}
}

// Validate checks that the settings are complete enough to serve.
func (s Settings) Validate() error {
	if s.Server.Addr == "" {
		return fmt.Errorf("%w: server address is required", ErrInvalidInput)
	}
	if s.Server.SecretToken == "" {
		return fmt.Errorf("%w: secret token is required", ErrInvalidInput)
	}
	if s.GitHub.Token == "" {
		return fmt.Errorf("%w: github token is required", ErrInvalidInput)
	}
	if s.GitHub.Username == "" {
		return fmt.Errorf("%w: github username is required", ErrInvalidInput)
	}
	if err := s.Preferences.Validate(); err != nil {
		return fmt.Errorf("model preferences: %w", err)
	}
	hasProvider := false
	for _, provider := range AllProviders() {
		if s.Providers.KeyFor(provider) != "" {
			hasProvider = true
			break
		}
	}
	if !hasProvider {
		return fmt.Errorf("%w: no generation provider configured", ErrInvalidInput)
	}
	return nil
}
