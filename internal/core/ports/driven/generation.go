package driven

import (
	"context"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
)

// GenerationProvider services generation calls for one backend.
// Implementations are stateless across calls except for their transport
// connection, and safe for concurrent use.
//
// Implementations include:
//   - OpenAI (chat completions)
//   - Anthropic (messages API)
//   - Gemini (OpenAI-compatible endpoint)
//   - OpenRouter (aggregation across vendors)
//
// Attachment handling must be behaviour-transparent across
// implementations: image attachments are inlined as binary-embedded
// references alongside the prompt, and non-image attachments are
// appended as labelled text blocks into the prompt text. Fallback
// relies on every provider honouring this identically.
type GenerationProvider interface {
	// Generate performs a single generation call. Transport errors,
	// non-success statuses and malformed responses are returned as
	// errors; the caller decides whether to try another candidate.
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)

	// Available reports whether the provider is currently usable,
	// i.e. credentials are present.
	Available() bool

	// Name identifies the provider.
	Name() domain.Provider
}

// GenerationRequest carries the inputs of one generation call.
type GenerationRequest struct {
	// Model is the model identifier to request.
	Model string

	// Prompt is the user prompt text.
	Prompt string

	// SystemPrompt is the optional system prompt text.
	SystemPrompt string

	// Attachments are the resolved supporting files, in order.
	Attachments []domain.Attachment

	// MaxTokens caps the completion length. Zero selects the
	// provider's default.
	MaxTokens int

	// Temperature controls randomness. Zero selects the provider's
	// default.
	Temperature float64
}

// GenerationResult is a successful generation outcome.
type GenerationResult struct {
	// Content is the raw generated text.
	Content string

	// Model is the model that produced the content.
	Model string

	// Provider identifies which backend serviced the call.
	Provider domain.Provider

	// Usage holds token accounting when the backend reports it.
	Usage TokenUsage
}

// TokenUsage holds optional usage counters from a generation call.
type TokenUsage struct {
	// PromptTokens is the input token count.
	PromptTokens int

	// CompletionTokens is the output token count.
	CompletionTokens int

	// TotalTokens is the combined count.
	TotalTokens int
}
