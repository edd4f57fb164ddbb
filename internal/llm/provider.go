// Package llm provides era naming: a small provider abstraction over a
// chat-completion call, prompt construction, response validation, and
// a deterministic fallback so naming can never fail the pipeline.
package llm

import "context"

// ChatOpts configures one call to a Provider.
type ChatOpts struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     float64 // seconds
}

// Provider is implemented by each concrete LLM backend. It has exactly
// one operation: send a prompt, get back the model's text content.
type Provider interface {
	Chat(ctx context.Context, prompt string, opts ChatOpts) (string, error)
	Name() string
}
