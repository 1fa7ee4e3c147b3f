package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider retries failed generations with backoff. It sits outside
// the logging decorator, so every attempt is recorded as its own event.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps a Provider with retry logic. MaxAttempts below 1 is
// treated as a single attempt.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	malformedRetried := false
	for attempt := 0; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt+1 >= r.config.MaxAttempts || !r.shouldRetry(err, &malformedRetried) {
			return nil, err
		}

		timer := time.NewTimer(r.backoff(attempt, err))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// shouldRetry reports whether another attempt can help. A malformed reply
// gets one more try since sampling may fix it; a truncated one never does.
func (r *RetryProvider) shouldRetry(err error, malformedRetried *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	f, ok := FailureOf(err)
	if !ok {
		return true
	}
	switch f.Kind {
	case FailTruncated:
		return false
	case FailMalformed:
		if *malformedRetried {
			return false
		}
		*malformedRetried = true
		return true
	default:
		return true
	}
}

// backoff is the wait before attempt+1: the backend's Retry-After when it
// sent one, otherwise exponential with ±20% jitter, capped at MaxWait.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	if f, ok := FailureOf(err); ok && f.RetryAfter > 0 {
		return f.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	wait = math.Min(wait, float64(r.config.MaxWait))
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(math.Max(wait, 0))
}
