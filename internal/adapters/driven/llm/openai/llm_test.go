package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driven"
)

// capturedRequest mirrors the wire format for server-side assertions.
type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type capturedPart struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

func TestNew(t *testing.T) {
	t.Run("requires API key", func(t *testing.T) {
		_, err := New(Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key")
	})

	t.Run("creates provider with defaults", func(t *testing.T) {
		p, err := New(Config{APIKey: "sk-test"})
		require.NoError(t, err)
		assert.True(t, p.Available())
		assert.Equal(t, domain.ProviderOpenAI, p.Name())
	})
}

func TestProvider_Generate(t *testing.T) {
	t.Run("sends prompt and returns content", func(t *testing.T) {
		var captured capturedRequest
		var authHeader string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/chat/completions", r.URL.Path)
			authHeader = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"choices": [{"message": {"content": "generated text"}, "finish_reason": "stop"}],
				"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
			}`))
		}))
		defer server.Close()

		p, err := New(Config{APIKey: "sk-test", BaseURL: server.URL})
		require.NoError(t, err)

		result, err := p.Generate(context.Background(), driven.GenerationRequest{
			Model:        "gpt-5",
			Prompt:       "build a todo app",
			SystemPrompt: "you are a web developer",
		})
		require.NoError(t, err)

		assert.Equal(t, "generated text", result.Content)
		assert.Equal(t, "gpt-5", result.Model)
		assert.Equal(t, domain.ProviderOpenAI, result.Provider)
		assert.Equal(t, 30, result.Usage.TotalTokens)
		assert.Equal(t, "Bearer sk-test", authHeader)

		assert.Equal(t, "gpt-5", captured.Model)
		require.Len(t, captured.Messages, 2)
		assert.Equal(t, "system", captured.Messages[0].Role)
		assert.Equal(t, "user", captured.Messages[1].Role)

		// System content is a plain string.
		var system string
		require.NoError(t, json.Unmarshal(captured.Messages[0].Content, &system))
		assert.Equal(t, "you are a web developer", system)

		// User content is a parts list led by the prompt text.
		var parts []capturedPart
		require.NoError(t, json.Unmarshal(captured.Messages[1].Content, &parts))
		require.Len(t, parts, 1)
		assert.Equal(t, "text", parts[0].Type)
		assert.Equal(t, "build a todo app", parts[0].Text)
	})

	t.Run("omits system message when no system prompt", func(t *testing.T) {
		var captured capturedRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
		}))
		defer server.Close()

		p, err := New(Config{APIKey: "sk-test", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = p.Generate(context.Background(), driven.GenerationRequest{
			Model:  "gpt-5",
			Prompt: "hello",
		})
		require.NoError(t, err)

		require.Len(t, captured.Messages, 1)
		assert.Equal(t, "user", captured.Messages[0].Role)
	})

	t.Run("inlines image attachments and appends text attachments", func(t *testing.T) {
		var captured capturedRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
		}))
		defer server.Close()

		p, err := New(Config{APIKey: "sk-test", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = p.Generate(context.Background(), driven.GenerationRequest{
			Model:  "gpt-5",
			Prompt: "use the mockup",
			Attachments: []domain.Attachment{
				{Name: "mockup.png", MIMEType: "image/png", Content: []byte{0x89, 0x50}, Binary: true},
				{Name: "notes.txt", MIMEType: "text/plain", Content: []byte("dark theme please")},
			},
		})
		require.NoError(t, err)

		require.Len(t, captured.Messages, 1)
		var parts []capturedPart
		require.NoError(t, json.Unmarshal(captured.Messages[0].Content, &parts))
		require.Len(t, parts, 2)

		// Text attachment lands inside the leading text part.
		assert.Contains(t, parts[0].Text, "--- File: notes.txt ---")
		assert.Contains(t, parts[0].Text, "dark theme please")
		assert.Contains(t, parts[0].Text, "--- End of notes.txt ---")

		// Image attachment becomes a data URI part.
		require.Equal(t, "image_url", parts[1].Type)
		require.NotNil(t, parts[1].ImageURL)
		assert.Equal(t, "data:image/png;base64,iVA=", parts[1].ImageURL.URL)
	})

	t.Run("returns API error message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "auth_error"}}`))
		}))
		defer server.Close()

		p, err := New(Config{APIKey: "sk-bad", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = p.Generate(context.Background(), driven.GenerationRequest{Model: "gpt-5", Prompt: "hi"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid api key")
	})

	t.Run("returns error on non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		p, err := New(Config{APIKey: "sk-test", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = p.Generate(context.Background(), driven.GenerationRequest{Model: "gpt-5", Prompt: "hi"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 502")
	})

	t.Run("returns error when no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices": []}`))
		}))
		defer server.Close()

		p, err := New(Config{APIKey: "sk-test", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = p.Generate(context.Background(), driven.GenerationRequest{Model: "gpt-5", Prompt: "hi"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no response choices")
	})
}
