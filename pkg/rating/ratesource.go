package rating

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// RateSource is the carrier abstraction: given an origin, destination,
// weight, and service, return priced quotes or an error. ServiceAll asks for
// every service in one call.
type RateSource interface {
	// Name returns the source identifier (e.g., "ups").
	Name() string

	// GetRates returns quotes for the lane. Implementations must honor the
	// context deadline; a hung upstream call must not hang the calculation.
	GetRates(ctx context.Context, origin, dest Address, weightLbs float64, service ServiceCode) ([]RateQuote, error)
}

// DefaultRateTTL bounds how long cached rates are reused.
const DefaultRateTTL = 30 * time.Minute

// CachedRateSource caches quotes per (origin, destination, weight, service)
// for a TTL. Different destinations and weights never share entries.
type CachedRateSource struct {
	source RateSource
	cache  *Cache
	ttl    time.Duration

	// Hit and Miss are optional observation hooks for metrics.
	Hit  func()
	Miss func()
}

// NewCachedRateSource wraps source with a TTL cache. A zero ttl uses
// DefaultRateTTL.
func NewCachedRateSource(source RateSource, cache *Cache, ttl time.Duration) *CachedRateSource {
	if ttl <= 0 {
		ttl = DefaultRateTTL
	}
	return &CachedRateSource{source: source, cache: cache, ttl: ttl}
}

// Name returns the wrapped source's name.
func (c *CachedRateSource) Name() string {
	return c.source.Name()
}

// GetRates serves from cache when possible, querying and caching otherwise.
// Errors are never cached.
func (c *CachedRateSource) GetRates(ctx context.Context, origin, dest Address, weightLbs float64, service ServiceCode) ([]RateQuote, error) {
	key := rateCacheKey(c.source.Name(), origin, dest, weightLbs, service)
	if cached, ok := c.cache.Get(key); ok {
		if quotes, ok := cached.([]RateQuote); ok {
			if c.Hit != nil {
				c.Hit()
			}
			return quotes, nil
		}
	}
	if c.Miss != nil {
		c.Miss()
	}

	quotes, err := c.source.GetRates(ctx, origin, dest, weightLbs, service)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, quotes, c.ttl)
	return quotes, nil
}

// Invalidate drops every cached rate for this source.
func (c *CachedRateSource) Invalidate() {
	c.cache.ClearPrefix("rates:" + c.source.Name() + ":")
}

func rateCacheKey(source string, origin, dest Address, weightLbs float64, service ServiceCode) string {
	return fmt.Sprintf("rates:%s:%s:%s:%.2f:%s",
		source, origin.PostalCode, dest.PostalCode, round2(weightLbs), service)
}

// BreakerRateSource wraps a RateSource with a circuit breaker so a flapping
// carrier API degrades to fallback rates quickly instead of timing out every
// checkout.
type BreakerRateSource struct {
	source  RateSource
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerRateSource wraps source with a circuit breaker.
func NewBreakerRateSource(source RateSource) *BreakerRateSource {
	return &BreakerRateSource{
		source: source,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    source.Name(),
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Name returns the wrapped source's name.
func (b *BreakerRateSource) Name() string {
	return b.source.Name()
}

// GetRates executes through the breaker. An open circuit maps to
// ErrSourceUnavailable so callers treat it as total failure.
func (b *BreakerRateSource) GetRates(ctx context.Context, origin, dest Address, weightLbs float64, service ServiceCode) ([]RateQuote, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.source.GetRates(ctx, origin, dest, weightLbs, service)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%w: %s circuit open", ErrSourceUnavailable, b.source.Name())
		}
		return nil, err
	}
	return result.([]RateQuote), nil
}
