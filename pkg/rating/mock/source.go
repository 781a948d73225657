// Package mock provides a scriptable in-memory rate source for tests and
// local development.
package mock

import (
	"context"
	"sync"

	"github.com/shopalloy/ratewise/pkg/rating"
)

// Base per-pound rates per service. Deterministic so tests and local quotes
// are repeatable.
var baseRates = map[rating.ServiceCode]float64{
	rating.ServiceGround:   1.20,
	rating.ServiceThreeDay: 1.80,
	rating.ServiceTwoDay:   2.60,
	rating.ServiceSaver:    3.40,
	rating.ServiceNextDay:  4.10,
}

const minimumCharge = 8.50

// Source is a mock rating.RateSource. Safe for concurrent use.
type Source struct {
	// Err, when set, is returned from every call.
	Err error

	// OnGetRates overrides the default deterministic behavior.
	OnGetRates func(ctx context.Context, origin, dest rating.Address, weightLbs float64, service rating.ServiceCode) ([]rating.RateQuote, error)

	// Calls counts GetRates invocations.
	Calls int

	mu sync.Mutex
}

// New creates a mock source with default deterministic rates.
func New() *Source {
	return &Source{}
}

// Name returns the source identifier.
func (s *Source) Name() string {
	return "mock"
}

// GetRates returns deterministic weight-proportional rates, or the scripted
// behavior when set.
func (s *Source) GetRates(ctx context.Context, origin, dest rating.Address, weightLbs float64, service rating.ServiceCode) ([]rating.RateQuote, error) {
	s.mu.Lock()
	s.Calls++
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.OnGetRates != nil {
		return s.OnGetRates(ctx, origin, dest, weightLbs, service)
	}

	services := []rating.ServiceCode{
		rating.ServiceGround,
		rating.ServiceThreeDay,
		rating.ServiceTwoDay,
		rating.ServiceSaver,
		rating.ServiceNextDay,
	}
	if service != rating.ServiceAll && service != "" {
		services = []rating.ServiceCode{service}
	}

	quotes := make([]rating.RateQuote, 0, len(services))
	for _, svc := range services {
		cost := baseRates[svc] * weightLbs
		if cost < minimumCharge {
			cost = minimumCharge
		}
		quotes = append(quotes, rating.RateQuote{
			Service:     svc,
			Label:       svc.Label(),
			Cost:        rating.Round2(cost),
			TransitDays: svc.TransitDays(),
		})
	}
	return quotes, nil
}
