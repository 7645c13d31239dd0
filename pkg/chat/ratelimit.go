package chat

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds the token-bucket parameters for history fetches.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimit stays well below typical chat-platform history quotas.
var DefaultRateLimit = RateLimitConfig{RequestsPerSecond: 5.0, BurstSize: 10}

// rateLimitedIterator throttles an underlying HistoryIterator so that crawl
// bursts across many channels cannot exhaust the platform's request quota.
type rateLimitedIterator struct {
	inner   HistoryIterator
	limiter *rate.Limiter
}

// RateLimited wraps it with a token-bucket limiter shared by the caller.
// Provider implementations hand the same limiter to every iterator they
// construct so the budget applies across concurrent channel scans.
func RateLimited(it HistoryIterator, limiter *rate.Limiter) HistoryIterator {
	return &rateLimitedIterator{inner: it, limiter: limiter}
}

// NewLimiter builds a limiter from cfg, falling back to DefaultRateLimit for
// non-positive values.
func NewLimiter(cfg RateLimitConfig) *rate.Limiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRateLimit.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultRateLimit.BurstSize
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize)
}

func (r *rateLimitedIterator) Next(ctx context.Context) (*Message, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Next(ctx)
}

// throttledProvider applies one shared limiter to every history iterator a
// provider hands out.
type throttledProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// Throttled wraps a provider so that all history fetches across all channels
// share a single token bucket built from cfg.
func Throttled(p Provider, cfg RateLimitConfig) Provider {
	return &throttledProvider{inner: p, limiter: NewLimiter(cfg)}
}

func (t *throttledProvider) History(ctx context.Context, ch Channel, before, after *time.Time) (HistoryIterator, error) {
	it, err := t.inner.History(ctx, ch, before, after)
	if err != nil {
		return nil, err
	}
	return RateLimited(it, t.limiter), nil
}

func (t *throttledProvider) CanReadHistory(identity User, ch Channel) bool {
	return t.inner.CanReadHistory(identity, ch)
}

func (t *throttledProvider) Channels(ctx context.Context, guildID ID) ([]Channel, error) {
	return t.inner.Channels(ctx, guildID)
}
