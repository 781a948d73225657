package rating

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WarehouseSelector picks the cheapest dropship site for a package by
// querying the rate source per site. Results are cached per
// (site, destination, weight) so concurrent orders share hits.
type WarehouseSelector struct {
	cfg    *Configuration
	source RateSource
	cache  *Cache
	ttl    time.Duration
	logger *otelzap.Logger
}

// NewWarehouseSelector creates a selector. A zero ttl uses DefaultRateTTL.
func NewWarehouseSelector(cfg *Configuration, source RateSource, cache *Cache, ttl time.Duration, logger *otelzap.Logger) *WarehouseSelector {
	if ttl <= 0 {
		ttl = DefaultRateTTL
	}
	return &WarehouseSelector{cfg: cfg, source: source, cache: cache, ttl: ttl, logger: logger}
}

type siteQuote struct {
	site     *Location
	order    int
	baseCost float64
	transit  int
}

// Select picks the cheapest active dropship site for the given destination
// and billable weight. One site's failure skips that site; only when every
// site and the designated fallback site fail does selection error.
func (ws *WarehouseSelector) Select(ctx context.Context, dest Address, billableWeight float64, sites []*Location) (*WarehouseSelection, error) {
	active := make([]*Location, 0, len(sites))
	for _, site := range sites {
		if site.Active {
			active = append(active, site)
		}
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("%w", ErrNoActiveSites)
	}

	quotes := make([]siteQuote, 0, len(active))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, site := range active {
		i, site := i, site
		g.Go(func() error {
			base, transit, err := ws.siteGroundRate(gctx, site, dest, billableWeight)
			if err != nil {
				// One failed site never fails the selection.
				ws.logger.Warn("dropship site rate query failed",
					zap.String("site", site.ID),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			quotes = append(quotes, siteQuote{site: site, order: i, baseCost: base, transit: transit})
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	if len(quotes) == 0 {
		return ws.fallbackSelect(ctx, dest, billableWeight, active)
	}

	markup := ws.cfg.EffectiveDropshipMarkup()
	best := quotes[0]
	for _, q := range quotes[1:] {
		// Ties break by catalog order.
		if q.baseCost < best.baseCost || (q.baseCost == best.baseCost && q.order < best.order) {
			best = q
		}
	}

	return &WarehouseSelection{
		SiteID:      best.site.ID,
		SiteCode:    best.site.SiteCode,
		BaseCost:    round2(best.baseCost),
		FinalCost:   round2(best.baseCost * markup),
		TransitDays: best.transit,
	}, nil
}

// siteGroundRate returns the cached or freshly queried ground rate from a
// site to the destination.
func (ws *WarehouseSelector) siteGroundRate(ctx context.Context, site *Location, dest Address, weight float64) (float64, int, error) {
	key := fmt.Sprintf("warehouse:%s:%s:%.2f", site.ID, dest.PostalCode, round2(weight))
	if cached, ok := ws.cache.Get(key); ok {
		if q, ok := cached.(siteRate); ok {
			return q.Cost, q.TransitDays, nil
		}
	}

	cost, transit, err := ws.querySiteGround(ctx, site, dest, weight)
	if err != nil {
		return 0, 0, err
	}
	ws.cache.Set(key, siteRate{Cost: cost, TransitDays: transit}, ws.ttl)
	return cost, transit, nil
}

type siteRate struct {
	Cost        float64
	TransitDays int
}

func (ws *WarehouseSelector) querySiteGround(ctx context.Context, site *Location, dest Address, weight float64) (float64, int, error) {
	quotes, err := ws.source.GetRates(ctx, site.Address, dest, weight, ServiceGround)
	if err != nil {
		return 0, 0, err
	}
	for _, q := range quotes {
		if q.Service == ServiceGround {
			return q.Cost, q.TransitDays, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: no ground rate for site %s", ErrRateUnavailable, site.ID)
}

// fallbackSelect queries the designated default site (or the first active
// site) without caching after every site has failed.
func (ws *WarehouseSelector) fallbackSelect(ctx context.Context, dest Address, weight float64, active []*Location) (*WarehouseSelection, error) {
	fallback := active[0]
	if ws.cfg.DefaultDropshipSiteID != "" {
		for _, site := range active {
			if site.ID == ws.cfg.DefaultDropshipSiteID {
				fallback = site
				break
			}
		}
	}

	ws.logger.Warn("all dropship sites failed, using fallback site",
		zap.String("site", fallback.ID),
	)

	base, transit, err := ws.querySiteGround(ctx, fallback, dest, weight)
	if err != nil {
		return nil, fmt.Errorf("%w: fallback site %s: %v", ErrRateUnavailable, fallback.ID, err)
	}

	markup := ws.cfg.EffectiveDropshipMarkup()
	return &WarehouseSelection{
		SiteID:       fallback.ID,
		SiteCode:     fallback.SiteCode,
		BaseCost:     round2(base),
		FinalCost:    round2(base * markup),
		TransitDays:  transit,
		UsedFallback: true,
	}, nil
}
