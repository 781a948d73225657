package rating

import (
	"context"
	"fmt"
	"sort"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// MinBillableWeight is the carrier minimum per package.
const MinBillableWeight = 1.0

// Calculator prices a package: resolves the origin, queries the rate source
// per enabled service, applies markups, and degrades to the location's
// static fallback rates when the source fails outright.
type Calculator struct {
	cfg       *Configuration
	source    RateSource
	catalog   *BoxCatalog
	warehouse *WarehouseSelector
	logger    *otelzap.Logger

	// FallbackUsed is an optional observation hook for metrics.
	FallbackUsed func()
}

// NewCalculator creates a calculator.
func NewCalculator(cfg *Configuration, source RateSource, catalog *BoxCatalog, warehouse *WarehouseSelector, logger *otelzap.Logger) *Calculator {
	return &Calculator{
		cfg:       cfg,
		source:    source,
		catalog:   catalog,
		warehouse: warehouse,
		logger:    logger,
	}
}

// Calculate prices a package. The package must already carry its box and
// billable weight. Returns an empty list when no origin resolves; returns
// fallback quotes labeled estimated on total source failure. The only hard
// error is total dropship failure (ErrRateUnavailable).
func (c *Calculator) Calculate(ctx context.Context, pkg *Package) ([]RateQuote, error) {
	origin, err := c.resolveOrigin(ctx, pkg)
	if err != nil {
		return nil, err
	}
	if origin == nil {
		// Missing configuration degrades to no rates, never an error.
		c.logger.Warn("no origin address for package", zap.String("package", pkg.ID))
		return nil, nil
	}

	weight := pkg.BillableWeight
	if weight < MinBillableWeight {
		weight = MinBillableWeight
	}

	services := c.enabledServices(pkg)

	quotes, err := c.source.GetRates(ctx, *origin, c.destinationFor(pkg), weight, ServiceAll)
	if err != nil {
		c.logger.Error("rate source failed, using fallback rates",
			zap.String("package", pkg.ID),
			zap.Error(err),
		)
		if c.FallbackUsed != nil {
			c.FallbackUsed()
		}
		return c.fallbackQuotes(pkg), nil
	}

	filtered := make([]RateQuote, 0, len(quotes))
	for _, q := range quotes {
		if _, ok := services[q.Service]; !ok {
			continue
		}
		q.Label = q.Service.Label()
		q.Cost = c.applyItemMarkups(q.Cost, pkg.Items)
		filtered = append(filtered, q)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Cost < filtered[j].Cost
	})
	return filtered, nil
}

// ShipToStoreQuote prices ship-to-store for an eligible package: the
// cheapest ground cost plus the profile margin, under the profile's
// customer-facing label.
func (c *Calculator) ShipToStoreQuote(pkg *Package, quotes []RateQuote) *RateQuote {
	if !pkg.ShipToStoreEligible || pkg.Profile == nil {
		return nil
	}
	for _, q := range quotes {
		if q.Service != ServiceGround {
			continue
		}
		label := pkg.Profile.ShipToStoreLabel
		if label == "" {
			label = "Ship to Store"
		}
		return &RateQuote{
			Service:     ServiceGround,
			Label:       label,
			Cost:        pkg.Profile.ShipToStoreMargin.Apply(q.Cost),
			TransitDays: q.TransitDays,
			Estimated:   q.Estimated,
		}
	}
	return nil
}

// resolveOrigin returns the package's origin address, running site selection
// for multi-site dropship warehouses. Selection metadata is attached to the
// package.
func (c *Calculator) resolveOrigin(ctx context.Context, pkg *Package) (*Address, error) {
	if pkg.LocationKind == KindDropshipWarehouse {
		sites := c.cfg.ActiveLocationsByKind(KindDropshipWarehouse)
		if len(sites) > 1 {
			sel, err := c.warehouse.Select(ctx, c.destinationFor(pkg), pkg.BillableWeight, sites)
			if err != nil {
				return nil, err
			}
			pkg.Warehouse = sel
			if site, ok := c.cfg.LocationByID(sel.SiteID); ok {
				pkg.Location = site
				pkg.LocationID = site.ID
				return &site.Address, nil
			}
		}
	}
	if pkg.Location == nil {
		return nil, nil
	}
	return &pkg.Location.Address, nil
}

func (c *Calculator) destinationFor(pkg *Package) Address {
	return pkg.Destination
}

// enabledServices returns the service set offered by the package's location,
// defaulting to every service when no location is resolved.
func (c *Calculator) enabledServices(pkg *Package) map[ServiceCode]struct{} {
	services := make(map[ServiceCode]struct{})
	if pkg.Location != nil && len(pkg.Location.Services) > 0 {
		for _, s := range pkg.Location.Services {
			services[s] = struct{}{}
		}
		return services
	}
	for s := range serviceLabels {
		services[s] = struct{}{}
	}
	return services
}

// applyItemMarkups layers each marked-up item's markup onto cost. Every
// item's markup is applied independently and the increments accumulate.
func (c *Calculator) applyItemMarkups(cost float64, items []CartItem) float64 {
	total := cost
	for _, item := range items {
		if item.MarkupValue <= 0 {
			continue
		}
		switch item.MarkupType {
		case MarginPercentage:
			total += cost * (item.MarkupValue / 100) * float64(item.Quantity)
		case MarginFlat:
			total += item.MarkupValue * float64(item.Quantity)
		}
	}
	return round2(total)
}

// fallbackQuotes returns the location's statically configured rates for
// ground, 2-day, and next-day, labeled as estimated.
func (c *Calculator) fallbackQuotes(pkg *Package) []RateQuote {
	if pkg.Location == nil || len(pkg.Location.FallbackRates) == 0 {
		return nil
	}
	order := []ServiceCode{ServiceGround, ServiceTwoDay, ServiceNextDay}
	quotes := make([]RateQuote, 0, len(order))
	for _, svc := range order {
		cost, ok := pkg.Location.FallbackRates[svc]
		if !ok {
			continue
		}
		quotes = append(quotes, RateQuote{
			Service:     svc,
			Label:       fmt.Sprintf("%s (Estimated)", svc.Label()),
			Cost:        c.applyItemMarkups(cost, pkg.Items),
			TransitDays: svc.TransitDays(),
			Estimated:   true,
		})
	}
	return quotes
}

// CombineAcrossLocations merges same-service quotes from several locations
// in the legacy combined-rate mode: "highest" keeps the max per service,
// "sum" totals them. Only services quoted by every location survive, since a
// combined price must cover each origin.
func (c *Calculator) CombineAcrossLocations(perLocation [][]RateQuote) []RateQuote {
	if len(perLocation) == 0 {
		return nil
	}
	strategy := c.cfg.EffectiveCombineStrategy()

	counts := make(map[ServiceCode]int)
	combined := make(map[ServiceCode]RateQuote)
	for _, quotes := range perLocation {
		for _, q := range quotes {
			counts[q.Service]++
			existing, ok := combined[q.Service]
			if !ok {
				combined[q.Service] = q
				continue
			}
			switch strategy {
			case CombineSum:
				existing.Cost = round2(existing.Cost + q.Cost)
			default:
				if q.Cost > existing.Cost {
					existing.Cost = q.Cost
				}
			}
			if q.TransitDays > existing.TransitDays {
				existing.TransitDays = q.TransitDays
			}
			existing.Estimated = existing.Estimated || q.Estimated
			combined[q.Service] = existing
		}
	}

	out := make([]RateQuote, 0, len(combined))
	for svc, q := range combined {
		if counts[svc] == len(perLocation) {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Cost < out[j].Cost
	})
	return out
}
