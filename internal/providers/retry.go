package providers

import (
	"context"
	"log/slog"
	"time"
)

// RetryConfig bounds the retry behaviour of RetryingClient.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryConfig returns the production retry policy:
// 3 attempts with 2s/4s backoff between them.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: 2 * time.Second}
}

// RetryingClient wraps a Provider with cancellation-aware bounded retry.
// Only service-unavailable class failures are retried; cancellation and
// terminal failures propagate immediately. The backoff wait is
// interruptible so a superseded call never blocks for the full window.
type RetryingClient struct {
	provider Provider
	cfg      RetryConfig
}

// NewRetryingClient wraps provider with the given retry policy.
func NewRetryingClient(provider Provider, cfg RetryConfig) *RetryingClient {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	return &RetryingClient{provider: provider, cfg: cfg}
}

// Chat performs the call with up to MaxAttempts attempts. On success the
// backend payload is returned verbatim, even when empty — emptiness is a
// caller-level concern.
func (c *RetryingClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := c.provider.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		if IsCancelled(err) || ctx.Err() != nil {
			return nil, err
		}
		if !IsRetryable(err) || attempt == c.cfg.MaxAttempts {
			return nil, err
		}
		lastErr = err

		delay := c.cfg.BaseDelay << (attempt - 1)
		slog.Warn("model call failed, retrying",
			"model", req.Model, "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}
