package llm

import "fmt"

// RateLimitError marks a provider response as rate-limited; callers
// should retry with backoff rather than fail immediately.
type RateLimitError struct {
	Provider string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited", e.Provider)
}

// AuthError marks an authoritative failure (bad credential, malformed
// request) that must not be retried.
type AuthError struct {
	Provider string
	Msg      string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Msg)
}
