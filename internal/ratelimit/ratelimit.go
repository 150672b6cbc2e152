package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// Budget caps how many requests each named provider may make during a run
// and paces all of them through one token bucket.
type Budget struct {
	mu      sync.Mutex
	limits  map[string]int
	used    map[string]int
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewBudget creates a budget. limits maps provider name to its cap; a
// missing or non-positive cap means unlimited. perSecond <= 0 disables pacing.
func NewBudget(limits map[string]int, perSecond float64, burst int, log *slog.Logger) *Budget {
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Inf, burst)
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	if log == nil {
		log = slog.Default()
	}

	copied := make(map[string]int, len(limits))
	for k, v := range limits {
		copied[k] = v
	}

	return &Budget{
		limits:  copied,
		used:    make(map[string]int),
		limiter: limiter,
		log:     log,
	}
}

// Use waits for the pacer and consumes one request from provider's budget.
// A wait that ends with ctx cancelled consumes nothing.
func (b *Budget) Use(ctx context.Context, provider string) error {
	if err := b.exhausted(provider); err != nil {
		return err
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for %s rate limit: %w", provider, err)
	}

	b.mu.Lock()
	limit := b.limits[provider]
	if limit > 0 && b.used[provider] >= limit {
		b.mu.Unlock()
		return b.exhausted(provider)
	}
	b.used[provider]++
	used := b.used[provider]
	b.mu.Unlock()

	b.log.Debug("request budget", "provider", provider, "used", used, "limit", limit)
	return nil
}

func (b *Budget) exhausted(provider string) error {
	b.mu.Lock()
	limit, used := b.limits[provider], b.used[provider]
	b.mu.Unlock()

	if limit > 0 && used >= limit {
		b.log.Warn("request budget exhausted", "provider", provider, "limit", limit)
		return fmt.Errorf("%s request budget exhausted (%d/%d)", provider, used, limit)
	}
	return nil
}

// GetStats returns usage per provider.
func (b *Budget) GetStats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := make(map[string]interface{}, len(b.used)*2)
	for name, n := range b.used {
		stats[name+"_used"] = n
		stats[name+"_limit"] = b.limits[name]
	}
	return stats
}
