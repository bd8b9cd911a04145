package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driven"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/logger"
)

// Fallback cascade defaults.
const (
	// DefaultCascadeAttempts is how many times the full cascade is
	// retried before generation is declared exhausted.
	DefaultCascadeAttempts = 3

	// DefaultCascadeBackoff is the wait before the first cascade retry.
	DefaultCascadeBackoff = 2 * time.Second

	// DefaultCascadeBackoffCap bounds the growing retry wait.
	DefaultCascadeBackoffCap = 10 * time.Second
)

// FallbackConfig holds retry tuning for the generation cascade.
type FallbackConfig struct {
	// Attempts is the number of full cascade passes.
	Attempts int

	// Backoff is the wait before the first retry. It doubles after
	// each failed pass.
	Backoff time.Duration

	// BackoffCap bounds the doubled wait.
	BackoffCap time.Duration
}

// DefaultFallbackConfig returns the stock cascade tuning.
func DefaultFallbackConfig() FallbackConfig {
	return FallbackConfig{
		Attempts:   DefaultCascadeAttempts,
		Backoff:    DefaultCascadeBackoff,
		BackoffCap: DefaultCascadeBackoffCap,
	}
}

// GenerationFallback walks the ranked model list and, for each model,
// its routed providers in order, returning the first successful result.
// A full pass with no success is retried with exponential backoff; only
// after every pass fails is generation declared exhausted.
//
// Providers are dispatched through the interface map; candidates whose
// provider is absent from the map or reports itself unavailable are
// skipped without consuming an attempt.
type GenerationFallback struct {
	providers map[domain.Provider]driven.GenerationProvider
	prefs     domain.ModelPreferences
	config    FallbackConfig
}

// NewGenerationFallback creates a fallback manager over the configured
// providers. Zero config fields fall back to defaults.
func NewGenerationFallback(
	providers map[domain.Provider]driven.GenerationProvider,
	prefs domain.ModelPreferences,
	config FallbackConfig,
) *GenerationFallback {
	if config.Attempts <= 0 {
		config.Attempts = DefaultCascadeAttempts
	}
	if config.Backoff <= 0 {
		config.Backoff = DefaultCascadeBackoff
	}
	if config.BackoffCap <= 0 {
		config.BackoffCap = DefaultCascadeBackoffCap
	}
	return &GenerationFallback{
		providers: providers,
		prefs:     prefs,
		config:    config,
	}
}

// Generate runs the cascade for one request. The request's Model field
// is overwritten per candidate; everything else is passed through
// unchanged, so every provider sees the same prompt and attachments.
func (f *GenerationFallback) Generate(ctx context.Context, req driven.GenerationRequest) (*driven.GenerationResult, error) {
	backoff := f.config.Backoff
	var lastErr error

	for attempt := 1; attempt <= f.config.Attempts; attempt++ {
		result, err := f.tryCandidates(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == f.config.Attempts {
			break
		}
		logger.Warn("Generation cascade attempt %d/%d failed; retrying in %s", attempt, f.config.Attempts, backoff)
		if err := wait(ctx, backoff); err != nil {
			lastErr = err
			break
		}
		backoff *= 2
		if backoff > f.config.BackoffCap {
			backoff = f.config.BackoffCap
		}
	}

	return nil, fmt.Errorf("%w: %w", domain.ErrProvidersExhausted, lastErr)
}

// tryCandidates makes one pass over every model/provider pair and
// returns the first success.
func (f *GenerationFallback) tryCandidates(ctx context.Context, req driven.GenerationRequest) (*driven.GenerationResult, error) {
	var lastErr error

	for _, model := range f.prefs.Models {
		for _, name := range f.prefs.ProvidersFor(model) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			provider, ok := f.providers[name]
			if !ok || !provider.Available() {
				continue
			}

			logger.Info("Attempting generation with %s via %s", model, name)
			candidate := req
			candidate.Model = model
			result, err := provider.Generate(ctx, candidate)
			if err != nil {
				logger.Error("Generation failed with %s via %s: %v", model, name, err)
				lastErr = err
				continue
			}
			logger.Info("Successfully generated with %s via %s", model, name)
			return result, nil
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no provider candidates available", domain.ErrProviderUnavailable)
	}
	return nil, lastErr
}

// wait sleeps for d unless the context ends first.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
