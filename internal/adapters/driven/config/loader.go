// Package config assembles runtime settings from an optional TOML
// file overlaid with environment variables. The file carries tuning
// that is safe to commit (addresses, model preferences, base URLs);
// secrets arrive through the environment, which always wins.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "aideployer.toml"

// fileSettings mirrors the TOML layout.
type fileSettings struct {
	Server struct {
		Addr        string `toml:"addr"`
		SecretToken string `toml:"secret_token"`
	} `toml:"server"`
	GitHub struct {
		Token    string `toml:"token"`
		Username string `toml:"username"`
	} `toml:"github"`
	Providers struct {
		OpenAIKey     string `toml:"openai_key"`
		AnthropicKey  string `toml:"anthropic_key"`
		GeminiKey     string `toml:"gemini_key"`
		OpenRouterKey string `toml:"openrouter_key"`
		OpenRouterURL string `toml:"openrouter_url"`
	} `toml:"providers"`
	Preferences struct {
		Models  []string            `toml:"models"`
		Routing map[string][]string `toml:"routing"`
	} `toml:"preferences"`
	Store struct {
		Path string `toml:"path"`
	} `toml:"store"`
}

// envSettings lists the recognised environment variables.
type envSettings struct {
	Addr           string `envconfig:"ADDR"`
	SecretToken    string `envconfig:"SECRET_TOKEN"`
	GitHubToken    string `envconfig:"GITHUB_TOKEN"`
	GitHubUsername string `envconfig:"GITHUB_USERNAME"`
	OpenAIKey      string `envconfig:"OPENAI_API_KEY"`
	AnthropicKey   string `envconfig:"ANTHROPIC_API_KEY"`
	GeminiKey      string `envconfig:"GEMINI_API_KEY"`
	OpenRouterKey  string `envconfig:"OPENROUTER_API_KEY"`
	OpenRouterURL  string `envconfig:"OPENROUTER_URL"`
	StorePath      string `envconfig:"STORE_PATH"`
}

// Load builds settings from defaults, the TOML file at path, and the
// environment, in that order of precedence (later wins). An empty path
// falls back to aideployer.toml when present; a named path must exist.
// Load assembles only, callers validate.
func Load(path string) (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var file fileSettings
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
		if err := applyFile(&settings, file); err != nil {
			return nil, err
		}
	case os.IsNotExist(err) && !explicit:
		// No config file, environment alone carries the settings.
	default:
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var env envSettings
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}
	applyEnv(&settings, env)

	return &settings, nil
}

func applyFile(settings *domain.Settings, file fileSettings) error {
	setIfPresent(&settings.Server.Addr, file.Server.Addr)
	setIfPresent(&settings.Server.SecretToken, file.Server.SecretToken)
	setIfPresent(&settings.GitHub.Token, file.GitHub.Token)
	setIfPresent(&settings.GitHub.Username, file.GitHub.Username)
	setIfPresent(&settings.Providers.OpenAIKey, file.Providers.OpenAIKey)
	setIfPresent(&settings.Providers.AnthropicKey, file.Providers.AnthropicKey)
	setIfPresent(&settings.Providers.GeminiKey, file.Providers.GeminiKey)
	setIfPresent(&settings.Providers.OpenRouterKey, file.Providers.OpenRouterKey)
	setIfPresent(&settings.Providers.OpenRouterURL, file.Providers.OpenRouterURL)
	setIfPresent(&settings.Store.Path, file.Store.Path)

	if len(file.Preferences.Models) > 0 {
		settings.Preferences.Models = file.Preferences.Models
	}
	if len(file.Preferences.Routing) > 0 {
		routing := make(map[string][]domain.Provider, len(file.Preferences.Routing))
		for model, names := range file.Preferences.Routing {
			providers := make([]domain.Provider, 0, len(names))
			for _, name := range names {
				provider := domain.Provider(name)
				if !provider.IsValid() {
					return fmt.Errorf("config: unknown provider %q for model %q", name, model)
				}
				providers = append(providers, provider)
			}
			routing[model] = providers
		}
		settings.Preferences.Routing = routing
	}

	return nil
}

func applyEnv(settings *domain.Settings, env envSettings) {
	setIfPresent(&settings.Server.Addr, env.Addr)
	setIfPresent(&settings.Server.SecretToken, env.SecretToken)
	setIfPresent(&settings.GitHub.Token, env.GitHubToken)
	setIfPresent(&settings.GitHub.Username, env.GitHubUsername)
	setIfPresent(&settings.Providers.OpenAIKey, env.OpenAIKey)
	setIfPresent(&settings.Providers.AnthropicKey, env.AnthropicKey)
	setIfPresent(&settings.Providers.GeminiKey, env.GeminiKey)
	setIfPresent(&settings.Providers.OpenRouterKey, env.OpenRouterKey)
	setIfPresent(&settings.Providers.OpenRouterURL, env.OpenRouterURL)
	setIfPresent(&settings.Store.Path, env.StorePath)
}

func setIfPresent(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
