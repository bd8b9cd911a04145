// Package ai assembles generation provider adapters from runtime
// settings. Construction happens once at startup; the fallback cascade
// receives the finished map and never reads configuration itself.
package ai

import (
	"fmt"

	anthropicllm "github.com/Srivastava-Shrestha/AIDeployer/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/Srivastava-Shrestha/AIDeployer/internal/adapters/driven/llm/gemini"
	openaillm "github.com/Srivastava-Shrestha/AIDeployer/internal/adapters/driven/llm/openai"
	openrouterllm "github.com/Srivastava-Shrestha/AIDeployer/internal/adapters/driven/llm/openrouter"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driven"
)

// BuildProviders creates one generation provider per configured
// credential. Providers without a key are left out of the map; the
// cascade treats absent providers as unavailable candidates.
func BuildProviders(settings domain.ProviderSettings) (map[domain.Provider]driven.GenerationProvider, error) {
	providers := make(map[domain.Provider]driven.GenerationProvider)

	if settings.OpenAIKey != "" {
		provider, err := openaillm.New(openaillm.Config{APIKey: settings.OpenAIKey})
		if err != nil {
			return nil, fmt.Errorf("creating openai provider: %w", err)
		}
		providers[domain.ProviderOpenAI] = provider
	}

	if settings.AnthropicKey != "" {
		provider, err := anthropicllm.New(anthropicllm.Config{APIKey: settings.AnthropicKey})
		if err != nil {
			return nil, fmt.Errorf("creating anthropic provider: %w", err)
		}
		providers[domain.ProviderAnthropic] = provider
	}

	if settings.GeminiKey != "" {
		provider, err := geminillm.New(geminillm.Config{APIKey: settings.GeminiKey})
		if err != nil {
			return nil, fmt.Errorf("creating gemini provider: %w", err)
		}
		providers[domain.ProviderGemini] = provider
	}

	if settings.OpenRouterKey != "" {
		provider, err := openrouterllm.New(openrouterllm.Config{
			APIKey:  settings.OpenRouterKey,
			BaseURL: settings.OpenRouterURL,
		})
		if err != nil {
			return nil, fmt.Errorf("creating openrouter provider: %w", err)
		}
		providers[domain.ProviderOpenRouter] = provider
	}

	return providers, nil
}
