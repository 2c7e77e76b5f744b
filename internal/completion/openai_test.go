package completion_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicex/internal/completion"
	"invoicex/internal/config"
	"invoicex/internal/domain"
	"invoicex/internal/extractor"
	"invoicex/internal/port"
)

func newTestClient(serverURL string) *completion.Client {
	return completion.NewClient(config.ExtractorConfig{
		Provider:     "openai",
		OpenAIAPIKey: "test-openai-key",
		BaseURL:      serverURL,
		TimeoutSecs:  30,
		MaxTokens:    2000,
	}, nil)
}

func chatResponse(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
}

func decodeRequest(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestClient_Complete_Text(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-openai-key", r.Header.Get("Authorization"))

		body := decodeRequest(t, r)
		assert.Equal(t, "gpt-4o", body["model"])
		assert.Equal(t, float64(2000), body["max_tokens"])
		temp, ok := body["temperature"].(float64)
		assert.True(t, ok, "temperature must be sent")
		assert.InDelta(t, 0, temp, 1e-6)

		messages := body["messages"].([]interface{})
		require.Len(t, messages, 2)
		system := messages[0].(map[string]interface{})
		assert.Equal(t, "system", system["role"])
		assert.Equal(t, extractor.SystemInstruction, system["content"])

		user := messages[1].(map[string]interface{})
		assert.Equal(t, "user", user["role"])
		assert.Equal(t, "PROMPT\n\nInvoice text:\nInvoice INV-001 Total 120.50", user["content"])

		_ = json.NewEncoder(w).Encode(chatResponse(`{"invoice_number":"INV-001"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	out, err := c.Complete(context.Background(), port.DocumentPayload{
		Kind: port.PayloadText,
		Text: "Invoice INV-001 Total 120.50",
	}, "PROMPT")

	require.NoError(t, err)
	assert.Equal(t, `{"invoice_number":"INV-001"}`, out)
}

func TestClient_Complete_Image(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeRequest(t, r)
		messages := body["messages"].([]interface{})
		require.Len(t, messages, 2)

		user := messages[1].(map[string]interface{})
		parts := user["content"].([]interface{})
		require.Len(t, parts, 2)

		text := parts[0].(map[string]interface{})
		assert.Equal(t, "text", text["type"])
		assert.Equal(t, "PROMPT", text["text"])

		img := parts[1].(map[string]interface{})
		assert.Equal(t, "image_url", img["type"])
		url := img["image_url"].(map[string]interface{})["url"].(string)
		assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"), url)

		_ = json.NewEncoder(w).Encode(chatResponse("```json\n{}\n```"))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	out, err := c.Complete(context.Background(), port.DocumentPayload{
		Kind:     port.PayloadImage,
		Image:    []byte{0x89, 0x50, 0x4E, 0x47},
		MIMEType: "image/png",
	}, "PROMPT")

	require.NoError(t, err)
	assert.Equal(t, "```json\n{}\n```", out)
}

func TestClient_Complete_RateLimited(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit exceeded","type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	out, err := c.Complete(context.Background(), port.DocumentPayload{Kind: port.PayloadText, Text: "x"}, "PROMPT")

	assert.Empty(t, out)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)

	var pe *completion.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "openai", pe.Provider)
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
	assert.True(t, pe.IsRateLimited())
	assert.Contains(t, err.Error(), "Rate limit exceeded")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "requests are never retried")
}

func TestClient_Complete_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Complete(context.Background(), port.DocumentPayload{Kind: port.PayloadText, Text: "x"}, "PROMPT")

	var pe *completion.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusUnauthorized, pe.StatusCode)
	assert.False(t, pe.IsRateLimited())
}

func TestClient_Complete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "x", "choices": []interface{}{}})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Complete(context.Background(), port.DocumentPayload{Kind: port.PayloadText, Text: "x"}, "PROMPT")

	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Contains(t, err.Error(), "no choices")
}

func TestClient_Complete_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, port.DocumentPayload{Kind: port.PayloadText, Text: "x"}, "PROMPT")

	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Complete_UnknownPayloadKind(t *testing.T) {
	c := newTestClient("http://127.0.0.1:0")
	_, err := c.Complete(context.Background(), port.DocumentPayload{Kind: "audio"}, "PROMPT")
	assert.Error(t, err)
}

func TestNewClient_Presets(t *testing.T) {
	tests := []struct {
		name         string
		cfg          config.ExtractorConfig
		wantProvider string
		wantModel    string
	}{
		{"deepseek", config.ExtractorConfig{Provider: "deepseek"}, "deepseek", "deepseek-chat"},
		{"openai", config.ExtractorConfig{Provider: "openai"}, "openai", "gpt-4o"},
		{"case insensitive", config.ExtractorConfig{Provider: "DeepSeek"}, "deepseek", "deepseek-chat"},
		{"unknown falls back to openai", config.ExtractorConfig{Provider: "claude"}, "openai", "gpt-4o"},
		{"empty falls back to openai", config.ExtractorConfig{}, "openai", "gpt-4o"},
		{"model override", config.ExtractorConfig{Provider: "openai", Model: "gpt-4o-mini"}, "openai", "gpt-4o-mini"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := completion.NewClient(tt.cfg, nil)
			assert.Equal(t, tt.wantProvider, c.Provider())
			assert.Equal(t, tt.wantModel, c.Model())
		})
	}
}

func TestResolvePreset(t *testing.T) {
	name, p := completion.ResolvePreset("deepseek")
	assert.Equal(t, "deepseek", name)
	assert.Equal(t, "https://api.deepseek.com/v1", p.BaseURL)

	name, p = completion.ResolvePreset("openai")
	assert.Equal(t, "openai", name)
	assert.Empty(t, p.BaseURL)
}
