package domain

import "fmt"

// Provider identifies a generation backend.
type Provider string

// Available providers.
const (
	// ProviderOpenAI is the OpenAI cloud API.
	ProviderOpenAI Provider = "openai"

	// ProviderAnthropic is the Anthropic cloud API.
	ProviderAnthropic Provider = "anthropic"

	// ProviderGemini is the Google Gemini API via its
	// OpenAI-compatible endpoint.
	ProviderGemini Provider = "gemini"

	// ProviderOpenRouter is the OpenRouter aggregation API.
	ProviderOpenRouter Provider = "openrouter"
)

// IsValid returns true if the provider is recognised.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOpenRouter:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p Provider) String() string {
	return string(p)
}

// AllProviders returns every recognised provider.
func AllProviders() []Provider {
	return []Provider{
		ProviderOpenAI,
		ProviderAnthropic,
		ProviderGemini,
		ProviderOpenRouter,
	}
}

// ModelPreferences is the static generation configuration: a ranked
// list of model identifiers, and for each model the ordered providers
// known to serve it. It is constructed once at startup and passed by
// reference into the fallback manager; nothing consults it through
// globals at call time.
type ModelPreferences struct {
	// Models is the ranked list of model identifiers to try.
	Models []string

	// Routing maps each model to its providers in declared order.
	Routing map[string][]Provider
}

// ProvidersFor returns the ordered providers able to serve a model.
// Models absent from the routing table have no candidates.
func (p ModelPreferences) ProvidersFor(model string) []Provider {
	if p.Routing == nil {
		return nil
	}
	return p.Routing[model]
}

// Validate checks that every ranked model routes to at least one
// recognised provider.
func (p ModelPreferences) Validate() error {
	if len(p.Models) == 0 {
		return fmt.Errorf("%w: no models configured", ErrInvalidInput)
	}
	for _, model := range p.Models {
		providers := p.ProvidersFor(model)
		if len(providers) == 0 {
			return fmt.Errorf("%w: model %q has no providers", ErrInvalidInput, model)
		}
		for _, provider := range providers {
			if !provider.IsValid() {
				return fmt.Errorf("%w: model %q routes to unknown provider %q", ErrInvalidInput, model, provider)
			}
		}
	}
	return nil
}

// DefaultModelPreferences returns the stock model ranking and routing.
func DefaultModelPreferences() ModelPreferences {
	return ModelPreferences{
		Models: []string{
			"anthropic/claude-opus-4.1",
			"claude-opus-4-1",
			"gpt-5",
			"google/gemini-2.5-pro",
			"gemini-2.5-pro",
		},
		Routing: map[string][]Provider{
			"anthropic/claude-opus-4.1": {ProviderOpenRouter},
			"claude-opus-4-1":           {ProviderAnthropic},
			"gpt-5":                     {ProviderOpenRouter, ProviderOpenAI},
			"google/gemini-2.5-pro":     {ProviderOpenRouter},
			"gemini-2.5-pro":            {ProviderGemini},
		},
	}
}
