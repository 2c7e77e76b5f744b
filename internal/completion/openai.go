package completion

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"invoicex/internal/config"
	"invoicex/internal/extractor"
	"invoicex/internal/port"
)

const defaultMaxTokens = 2000

// deterministic is the smallest temperature the SDK will serialize;
// a literal 0 is dropped by omitempty and the provider default applies.
const deterministic = math.SmallestNonzeroFloat32

// Client implements port.CompletionClient against any OpenAI-compatible
// chat completions API.
type Client struct {
	api       *openai.Client
	provider  string
	model     string
	maxTokens int
	timeout   time.Duration
	log       *zap.Logger
}

// NewClient creates a completion client for the configured provider.
// Explicit model and base_url settings override the provider preset.
func NewClient(cfg config.ExtractorConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	provider, preset := ResolvePreset(cfg.Provider)

	model := preset.Model
	if cfg.Model != "" {
		model = cfg.Model
	}
	baseURL := preset.BaseURL
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	apiCfg := openai.DefaultConfig(cfg.ResolvedAPIKey())
	if baseURL != "" {
		apiCfg.BaseURL = baseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout()}

	if cfg.ResolvedAPIKey() == "" {
		log.Warn("completion.NewClient: no API key configured", zap.String("provider", provider))
	}

	return &Client{
		api:       openai.NewClientWithConfig(apiCfg),
		provider:  provider,
		model:     model,
		maxTokens: maxTokens,
		timeout:   cfg.Timeout(),
		log:       log,
	}
}

// Provider returns the resolved provider name.
func (c *Client) Provider() string { return c.provider }

// Model returns the model sent with every request.
func (c *Client) Model() string { return c.model }

// Complete sends one chat completion request and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, payload port.DocumentPayload, prompt string) (string, error) {
	user, err := buildUserMessage(payload, prompt)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: deterministic,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractor.SystemInstruction},
			user,
		},
	})
	if err != nil {
		return "", newProviderError(c.provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", newProviderError(c.provider, errors.New("empty response: no choices"))
	}

	c.log.Debug("completion.Complete: response received",
		zap.String("provider", c.provider),
		zap.String("model", c.model),
		zap.String("payload_kind", string(payload.Kind)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message.Content, nil
}

func buildUserMessage(payload port.DocumentPayload, prompt string) (openai.ChatCompletionMessage, error) {
	switch payload.Kind {
	case port.PayloadText:
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt + "\n\nInvoice text:\n" + payload.Text,
		}, nil
	case port.PayloadImage:
		mime := payload.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(payload.Image))
		return openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
			},
		}, nil
	default:
		return openai.ChatCompletionMessage{}, fmt.Errorf("unsupported payload kind: %q", payload.Kind)
	}
}
