package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// AnthropicProvider calls the Anthropic messages API.
type AnthropicProvider struct {
	apiKey string
	model  string
	client *resty.Client
}

// NewAnthropicProvider builds a provider bound to the given model and API key.
func NewAnthropicProvider(apiKey, model string, timeout time.Duration) *AnthropicProvider {
	client := resty.New().
		SetBaseURL("https://api.anthropic.com/v1").
		SetTimeout(timeout).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", "2023-06-01")
	return &AnthropicProvider{apiKey: apiKey, model: model, client: client}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

type anthropicMessageRequest struct {
	Model       string              `json:"model"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature"`
	Messages    []openAIChatMessage `json:"messages"`
}

type anthropicMessageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Chat sends the prompt as a single user message and returns the first
// content block's text.
func (p *AnthropicProvider) Chat(ctx context.Context, prompt string, opts ChatOpts) (string, error) {
	if p.apiKey == "" {
		return "", &AuthError{Provider: "anthropic", Msg: "no API credential configured"}
	}

	model := p.model
	if opts.Model != "" {
		model = opts.Model
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}

	var result anthropicMessageResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(anthropicMessageRequest{
			Model:       model,
			MaxTokens:   maxTokens,
			Temperature: opts.Temperature,
			Messages:    []openAIChatMessage{{Role: "user", Content: prompt}},
		}).
		SetResult(&result).
		Post("/messages")
	if err != nil {
		return "", fmt.Errorf("anthropic: request failed: %w", err)
	}
	if resp.StatusCode() == 429 {
		return "", &RateLimitError{Provider: "anthropic"}
	}
	if resp.IsError() {
		msg := resp.Status()
		if result.Error != nil {
			msg = result.Error.Message
		}
		if resp.StatusCode() == 401 || resp.StatusCode() == 400 {
			return "", &AuthError{Provider: "anthropic", Msg: msg}
		}
		return "", fmt.Errorf("anthropic: %s", msg)
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("anthropic: empty response")
	}
	return result.Content[0].Text, nil
}
