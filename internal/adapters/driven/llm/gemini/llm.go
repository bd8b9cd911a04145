// Package gemini provides a generation provider adapter using the
// Google Gemini API through its OpenAI-compatible endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.GenerationProvider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultTimeout     = 120 * time.Second
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.7
)

// Config holds configuration for the Gemini provider.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API base URL (default: the OpenAI-compatible
	// Gemini endpoint).
	BaseURL string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Provider services generation calls through the Gemini API.
type Provider struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// chatCompletionRequest is the /chat/completions request format.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

// chatMessage is the chat message format. Content is either a plain
// string (system messages) or a list of contentPart (user messages
// carrying attachments).
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// contentPart is one element of a user message's content list.
type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

// imageRef carries an inline data URI for an image part.
type imageRef struct {
	URL string `json:"url"`
}

// chatCompletionResponse is the /chat/completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// New creates a new Gemini provider.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Provider{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}, nil
}

// Name identifies the provider.
func (p *Provider) Name() domain.Provider {
	return domain.ProviderGemini
}

// Available reports whether credentials are present.
func (p *Provider) Available() bool {
	return p.apiKey != ""
}

// Generate performs a single generation call. Model identifiers may
// carry a vendor prefix ("google/gemini-2.5-pro"); the prefix is
// stripped before the call and the original identifier is reported
// back in the result.
func (p *Provider) Generate(ctx context.Context, req driven.GenerationRequest) (*driven.GenerationResult, error) {
	model := req.Model
	if i := strings.Index(model, "/"); i >= 0 {
		model = model[i+1:]
	}

	reqBody := chatCompletionRequest{
		Model:       model,
		Messages:    buildMessages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if reqBody.MaxTokens == 0 {
		reqBody.MaxTokens = DefaultMaxTokens
	}
	if reqBody.Temperature == 0 {
		reqBody.Temperature = DefaultTemperature
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("gemini error: %s", chatResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini error (status %d): %s", resp.StatusCode, string(body))
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("gemini: no response choices returned")
	}

	return &driven.GenerationResult{
		Content:  chatResp.Choices[0].Message.Content,
		Model:    req.Model,
		Provider: domain.ProviderGemini,
		Usage: driven.TokenUsage{
			TotalTokens: chatResp.Usage.TotalTokens,
		},
	}, nil
}

// buildMessages shapes the prompt and attachments into the wire format.
// Image attachments become inline data URI parts; all other
// attachments are appended to the prompt text as labelled blocks.
func buildMessages(req driven.GenerationRequest) []chatMessage {
	var messages []chatMessage
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}

	text := req.Prompt
	parts := []contentPart{{Type: "text"}}
	for _, att := range req.Attachments {
		if att.IsImage() {
			encoded := base64.StdEncoding.EncodeToString(att.Content)
			parts = append(parts, contentPart{
				Type:     "image_url",
				ImageURL: &imageRef{URL: "data:" + att.MIMEType + ";base64," + encoded},
			})
		} else {
			text += "\n\n--- File: " + att.Name + " ---\n" + string(att.Content) + "\n--- End of " + att.Name + " ---"
		}
	}
	parts[0].Text = text

	messages = append(messages, chatMessage{Role: "user", Content: parts})
	return messages
}
