package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driven"
)

func testFallbackConfig(attempts int) FallbackConfig {
	return FallbackConfig{
		Attempts:   attempts,
		Backoff:    time.Millisecond,
		BackoffCap: 2 * time.Millisecond,
	}
}

// TestGenerationFallback_FirstSuccessWins verifies that the cascade
// stops at the first successful candidate and later candidates are
// never attempted.
func TestGenerationFallback_FirstSuccessWins(t *testing.T) {
	failing := newStubProvider(domain.ProviderOpenRouter, "")
	failing.err = errors.New("upstream overloaded")
	winning := newStubProvider(domain.ProviderAnthropic, "winning content")
	spare := newStubProvider(domain.ProviderOpenAI, "spare content")

	prefs := domain.ModelPreferences{
		Models: []string{"model-a", "model-b"},
		Routing: map[string][]domain.Provider{
			"model-a": {domain.ProviderOpenRouter},
			"model-b": {domain.ProviderAnthropic, domain.ProviderOpenAI},
		},
	}
	providers := map[domain.Provider]driven.GenerationProvider{
		domain.ProviderOpenRouter: failing,
		domain.ProviderAnthropic:  winning,
		domain.ProviderOpenAI:     spare,
	}
	fallback := NewGenerationFallback(providers, prefs, testFallbackConfig(3))

	req := driven.GenerationRequest{
		Prompt:       "build something",
		SystemPrompt: "you are a builder",
		Attachments:  []domain.Attachment{{Name: "data.csv", MIMEType: "text/csv"}},
	}
	result, err := fallback.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "winning content", result.Content)
	assert.Equal(t, domain.ProviderAnthropic, result.Provider)
	assert.Equal(t, 1, failing.calls())
	assert.Equal(t, 1, winning.calls())
	assert.Equal(t, 0, spare.calls())

	// The winning candidate saw the original request with only the
	// model overridden.
	got := winning.lastRequest()
	assert.Equal(t, "model-b", got.Model)
	assert.Equal(t, "build something", got.Prompt)
	assert.Equal(t, "you are a builder", got.SystemPrompt)
	assert.Len(t, got.Attachments, 1)
}

// TestGenerationFallback_SkipsUnavailableProviders verifies that
// unconfigured and unavailable providers are passed over without
// consuming the attempt.
func TestGenerationFallback_SkipsUnavailableProviders(t *testing.T) {
	unavailable := newStubProvider(domain.ProviderAnthropic, "never")
	unavailable.available = false
	working := newStubProvider(domain.ProviderGemini, "generated")

	prefs := domain.ModelPreferences{
		Models: []string{"gpt-5"},
		Routing: map[string][]domain.Provider{
			// openai is routed but never configured.
			"gpt-5": {domain.ProviderOpenAI, domain.ProviderAnthropic, domain.ProviderGemini},
		},
	}
	providers := map[domain.Provider]driven.GenerationProvider{
		domain.ProviderAnthropic: unavailable,
		domain.ProviderGemini:    working,
	}
	fallback := NewGenerationFallback(providers, prefs, testFallbackConfig(3))

	result, err := fallback.Generate(context.Background(), driven.GenerationRequest{Prompt: "p"})
	require.NoError(t, err)

	assert.Equal(t, "generated", result.Content)
	assert.Equal(t, 0, unavailable.calls())
	assert.Equal(t, 1, working.calls())
}

// TestGenerationFallback_RetriesCascade verifies that a full failed
// pass is retried and a later pass can succeed.
func TestGenerationFallback_RetriesCascade(t *testing.T) {
	provider := newStubProvider(domain.ProviderOpenAI, "eventually")
	provider.failFirst = 1

	fallback := newTestFallback(provider, 3)
	result, err := fallback.Generate(context.Background(), driven.GenerationRequest{Prompt: "p"})
	require.NoError(t, err)

	assert.Equal(t, "eventually", result.Content)
	assert.Equal(t, 2, provider.calls())
}

// TestGenerationFallback_Exhaustion verifies that when every candidate
// fails on every pass, the call count is the attempt bound times the
// candidate count and the terminal error is returned.
func TestGenerationFallback_Exhaustion(t *testing.T) {
	first := newStubProvider(domain.ProviderOpenRouter, "")
	first.err = errors.New("provider down")
	second := newStubProvider(domain.ProviderOpenAI, "")
	second.err = errors.New("provider down")

	prefs := domain.ModelPreferences{
		Models: []string{"model-a", "model-b"},
		Routing: map[string][]domain.Provider{
			"model-a": {domain.ProviderOpenRouter},
			"model-b": {domain.ProviderOpenAI},
		},
	}
	providers := map[domain.Provider]driven.GenerationProvider{
		domain.ProviderOpenRouter: first,
		domain.ProviderOpenAI:     second,
	}
	fallback := NewGenerationFallback(providers, prefs, testFallbackConfig(3))

	result, err := fallback.Generate(context.Background(), driven.GenerationRequest{Prompt: "p"})
	require.Error(t, err)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrProvidersExhausted)
	assert.ErrorContains(t, err, "provider down")
	assert.Equal(t, 3, first.calls())
	assert.Equal(t, 3, second.calls())
}

// TestGenerationFallback_NoCandidates verifies that a routing table
// pointing only at unconfigured providers still terminates with the
// exhaustion error.
func TestGenerationFallback_NoCandidates(t *testing.T) {
	prefs := domain.ModelPreferences{
		Models:  []string{"gpt-5"},
		Routing: map[string][]domain.Provider{"gpt-5": {domain.ProviderOpenAI}},
	}
	fallback := NewGenerationFallback(nil, prefs, testFallbackConfig(2))

	_, err := fallback.Generate(context.Background(), driven.GenerationRequest{Prompt: "p"})
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrProvidersExhausted)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.ErrorContains(t, err, "no provider candidates available")
}

// TestGenerationFallback_ContextCancelled verifies that a cancelled
// context short-circuits the cascade before any provider call.
func TestGenerationFallback_ContextCancelled(t *testing.T) {
	provider := newStubProvider(domain.ProviderOpenAI, "never")
	fallback := newTestFallback(provider, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fallback.Generate(ctx, driven.GenerationRequest{Prompt: "p"})
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrProvidersExhausted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, provider.calls())
}

// TestGenerationFallback_DefaultConfig verifies the zero-value fill-in.
func TestGenerationFallback_DefaultConfig(t *testing.T) {
	fallback := NewGenerationFallback(nil, domain.DefaultModelPreferences(), FallbackConfig{})

	assert.Equal(t, DefaultCascadeAttempts, fallback.config.Attempts)
	assert.Equal(t, DefaultCascadeBackoff, fallback.config.Backoff)
	assert.Equal(t, DefaultCascadeBackoffCap, fallback.config.BackoffCap)
}
