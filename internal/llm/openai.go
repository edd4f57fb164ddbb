package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// OpenAIProvider calls the OpenAI chat-completions API.
type OpenAIProvider struct {
	apiKey string
	model  string
	client *resty.Client
}

// NewOpenAIProvider builds a provider bound to the given model and API key.
func NewOpenAIProvider(apiKey, model string, timeout time.Duration) *OpenAIProvider {
	client := resty.New().
		SetBaseURL("https://api.openai.com/v1").
		SetTimeout(timeout).
		SetAuthToken(apiKey)
	return &OpenAIProvider{apiKey: apiKey, model: model, client: client}
}

func (p *OpenAIProvider) Name() string { return "openai" }

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Chat sends the prompt as a single user message and returns the first
// choice's content.
func (p *OpenAIProvider) Chat(ctx context.Context, prompt string, opts ChatOpts) (string, error) {
	if p.apiKey == "" {
		return "", &AuthError{Provider: "openai", Msg: "no API credential configured"}
	}

	model := p.model
	if opts.Model != "" {
		model = opts.Model
	}

	var result openAIChatResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(openAIChatRequest{
			Model:       model,
			Messages:    []openAIChatMessage{{Role: "user", Content: prompt}},
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
		}).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	if resp.StatusCode() == 429 {
		return "", &RateLimitError{Provider: "openai"}
	}
	if resp.IsError() {
		msg := resp.Status()
		if result.Error != nil {
			msg = result.Error.Message
		}
		if resp.StatusCode() == 401 || resp.StatusCode() == 400 {
			return "", &AuthError{Provider: "openai", Msg: msg}
		}
		return "", fmt.Errorf("openai: %s", msg)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}
	return result.Choices[0].Message.Content, nil
}
