package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

// Policy bounds the retry loop. MaxRetries of zero means every call is
// attempted exactly once.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration // first backoff, doubled on each retry
	MaxDelay   time.Duration // caps backoff and Retry-After, zero means no cap
}

// RetryFetcher is a decorator that retries transient failures with exponential
// backoff and jitter before giving up.
type RetryFetcher struct {
	inner  model.JobFetcher
	policy Policy
	source string
	logger *slog.Logger
}

// NewRetryFetcher wraps a JobFetcher with retry logic for the named source.
func NewRetryFetcher(inner model.JobFetcher, source string, policy Policy, logger *slog.Logger) *RetryFetcher {
	return &RetryFetcher{
		inner:  inner,
		policy: policy,
		source: source,
		logger: logger,
	}
}

// FetchJobs attempts to fetch jobs, retrying on transient errors.
func (f *RetryFetcher) FetchJobs(ctx context.Context, q model.Query) ([]model.Job, error) {
	var lastErr error
	for attempt := 0; attempt <= f.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.backoffDelay(attempt, lastErr)
			f.logger.Warn("retrying after transient error",
				"source", f.source,
				"attempt", attempt,
				"max_retries", f.policy.MaxRetries,
				"delay", delay,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("retry %s cancelled: %w", f.source, ctx.Err())
			case <-time.After(delay):
			}
		}

		jobs, err := f.inner.FetchJobs(ctx, q)
		if err == nil {
			return jobs, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// A Retry-After from the upstream takes precedence.
func (f *RetryFetcher) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return f.capped(httpErr.RetryAfter)
	}

	delay := f.policy.BaseDelay << (attempt - 1)
	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
	return f.capped(delay)
}

func (f *RetryFetcher) capped(d time.Duration) time.Duration {
	if f.policy.MaxDelay > 0 && d > f.policy.MaxDelay {
		return f.policy.MaxDelay
	}
	return d
}

// isRetryable reports whether err is a transient failure: 429, 5xx or a
// transport error. Context errors are final.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	return true
}
