package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/snarg/eras-engine/internal/eras"
	"github.com/snarg/eras-engine/internal/metrics"
)

const (
	maxAttempts       = 3
	backoffInitial    = 1 * time.Second
	breakerThreshold  = 5
	breakerOpenPeriod = 2 * time.Minute
)

// Client wraps a Provider with bounded retry and a process-wide circuit
// breaker, and provides the batching entry point the pipeline calls.
type Client struct {
	provider Provider
	opts     ChatOpts
	breaker  *gobreaker.CircuitBreaker[string]
	log      zerolog.Logger
}

// NewClient builds a naming client. provider may be nil, in which case
// every era is named by the deterministic fallback (used when no LLM
// provider is configured).
func NewClient(provider Provider, opts ChatOpts, log zerolog.Logger) *Client {
	var cb *gobreaker.CircuitBreaker[string]
	if provider != nil {
		name := "llm-" + provider.Name()
		cb = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        name,
			MaxRequests: 3,
			Interval:    time.Minute,
			Timeout:     breakerOpenPeriod,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("llm circuit breaker state change")
			},
		})
	}
	return &Client{provider: provider, opts: opts, breaker: cb, log: log}
}

// NameEra runs the single-era naming operation: call, parse, validate,
// or fall back. It never returns an error; a failed call silently
// degrades to the deterministic name.
func (c *Client) NameEra(ctx context.Context, era eras.Era) NamedEra {
	if c.provider == nil {
		return Fallback(era)
	}

	content, err := c.callWithRetry(ctx, BuildPrompt(era))
	if err != nil {
		c.log.Warn().Err(err).Int("era_id", era.ID).Str("provider", c.provider.Name()).Msg("llm call failed, using fallback name")
		metrics.LLMCallsTotal.WithLabelValues(c.provider.Name(), "fallback").Inc()
		return Fallback(era)
	}

	raw, ok := ParseModelResponse(content)
	if !ok {
		c.log.Warn().Int("era_id", era.ID).Msg("llm response was not parseable JSON, using fallback name")
		metrics.LLMCallsTotal.WithLabelValues(c.provider.Name(), "fallback").Inc()
		return Fallback(era)
	}
	named, ok := CleanAndValidate(raw)
	if !ok {
		c.log.Warn().Int("era_id", era.ID).Msg("llm response failed validation, using fallback name")
		metrics.LLMCallsTotal.WithLabelValues(c.provider.Name(), "fallback").Inc()
		return Fallback(era)
	}
	metrics.LLMCallsTotal.WithLabelValues(c.provider.Name(), "success").Inc()
	return named
}

// callWithRetry retries transport errors, timeouts, and rate limits
// with bounded exponential backoff: 3 attempts total, so at most two
// waits, starting at 1s and doubling (jittered by the backoff library).
// Authoritative failures (bad credential, malformed request) are not
// retried. Every call also passes through the circuit breaker, which
// fails fast once the provider has been failing consistently.
func (c *Client) callWithRetry(ctx context.Context, prompt string) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = backoffInitial
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, maxAttempts-1), ctx)

	var result string
	operation := func() error {
		out, err := c.breaker.Execute(func() (string, error) {
			return c.provider.Chat(ctx, prompt, c.opts)
		})
		if err != nil {
			var authErr *AuthError
			if errors.As(err, &authErr) {
				return backoff.Permanent(err)
			}
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = out
		return nil
	}

	err := backoff.Retry(operation, policy)
	return result, err
}

// NameAllEras names each era sequentially, reporting progress linearly
// mapped into [40, 70]. A failure on one era never aborts the batch.
func (c *Client) NameAllEras(ctx context.Context, input []eras.Era, onProgress func(percent int)) []eras.Era {
	n := len(input)
	out := make([]eras.Era, n)
	for i, era := range input {
		named := c.nameEraSafe(ctx, era)
		era.Title = named.Title
		era.Summary = named.Summary
		out[i] = era
		if onProgress != nil {
			onProgress(40 + (i+1)*30/n)
		}
	}
	return out
}

// nameEraSafe isolates a single era's naming from an unexpected panic
// in a provider implementation, falling back rather than taking down
// the whole batch.
func (c *Client) nameEraSafe(ctx context.Context, era eras.Era) (named NamedEra) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Int("era_id", era.ID).Msg("panic during era naming, using fallback")
			named = Fallback(era)
		}
	}()
	return c.NameEra(ctx, era)
}
