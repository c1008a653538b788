package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/amishk599/jobpulse/internal/model"
)

// SourceLimiter holds one token bucket per upstream source so a busy source
// never delays another.
type SourceLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perSec   map[string]float64 // requests per second, 0 or absent means unlimited
}

// NewSourceLimiter creates an empty limiter. Sources are registered with Set.
func NewSourceLimiter() *SourceLimiter {
	return &SourceLimiter{
		limiters: make(map[string]*rate.Limiter),
		perSec:   make(map[string]float64),
	}
}

// Set configures the allowed request rate for a source. A burst of one keeps
// consecutive calls at least 1/perSecond apart.
func (l *SourceLimiter) Set(source string, perSecond float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.perSec[source] = perSecond
	delete(l.limiters, source)
}

func (l *SourceLimiter) limiter(source string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters[source]; ok {
		return lim
	}
	perSec := l.perSec[source]
	if perSec <= 0 {
		return nil
	}
	lim := rate.NewLimiter(rate.Limit(perSec), 1)
	l.limiters[source] = lim
	return lim
}

// Wait blocks until source may issue another request. Unlimited sources
// return immediately.
func (l *SourceLimiter) Wait(ctx context.Context, source string) error {
	lim := l.limiter(source)
	if lim == nil {
		return nil
	}
	if err := lim.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", source, err)
	}
	return nil
}

// RateLimitedFetcher is a decorator that enforces source-level rate limiting
// before delegating to the wrapped JobFetcher.
type RateLimitedFetcher struct {
	inner   model.JobFetcher
	limiter *SourceLimiter
	source  string
}

// NewRateLimitedFetcher wraps a JobFetcher with source-level rate limiting.
func NewRateLimitedFetcher(inner model.JobFetcher, limiter *SourceLimiter, source string) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: limiter,
		source:  source,
	}
}

// FetchJobs waits for the limiter, then delegates to the wrapped fetcher.
func (f *RateLimitedFetcher) FetchJobs(ctx context.Context, q model.Query) ([]model.Job, error) {
	if err := f.limiter.Wait(ctx, f.source); err != nil {
		return nil, err
	}
	return f.inner.FetchJobs(ctx, q)
}
