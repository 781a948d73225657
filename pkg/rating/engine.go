package rating

import (
	"context"
	"errors"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Engine wires the calculation pipeline: split, box, rate, rules, fees,
// estimate. It holds the dependencies every pass needs.
type Engine struct {
	cfg       *Configuration
	splitter  *Splitter
	catalog   *BoxCatalog
	calc      *Calculator
	rules     *RuleEngine
	estimator *DeliveryEstimator
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// NewEngine builds an engine over a configuration and rate source. The
// legacy free-shipping threshold is migrated into the rule list here, once.
func NewEngine(cfg *Configuration, source RateSource, cache *Cache, logger *otelzap.Logger, tracer trace.Tracer) *Engine {
	MigrateLegacyThreshold(cfg)

	catalog := NewBoxCatalog(cfg)
	warehouse := NewWarehouseSelector(cfg, source, cache, DefaultRateTTL, logger)

	return &Engine{
		cfg:       cfg,
		splitter:  NewSplitter(cfg),
		catalog:   catalog,
		calc:      NewCalculator(cfg, source, catalog, warehouse, logger),
		rules:     NewRuleEngine(cfg),
		estimator: NewDeliveryEstimator(cfg),
		logger:    logger,
		tracer:    tracer,
	}
}

// Calculator exposes the calculator for hosts using the legacy combined-rate
// mode directly.
func (e *Engine) Calculator() *Calculator { return e.calc }

// Estimator exposes the estimator, mainly so tests and hosts can fix the
// clock.
func (e *Engine) Estimator() *DeliveryEstimator { return e.estimator }

// Quote runs the full pipeline for a cart and returns its priced packages.
// Degradation rules: missing configuration yields packages with empty rate
// lists; rate-source failure yields estimated fallback rates; only total
// dropship failure returns an error.
func (e *Engine) Quote(ctx context.Context, cart Cart) ([]*Package, error) {
	ctx, span := e.startSpan(ctx, "engine.Quote")
	defer span.End()

	packages := e.splitter.Split(cart)
	span.SetAttributes(attribute.Int("packages", len(packages)))

	for _, pkg := range packages {
		if err := e.pricePackage(ctx, cart, pkg); err != nil {
			return nil, err
		}
	}
	return packages, nil
}

// pricePackage attaches box, weight, quotes, rule overrides, fees, and
// estimates to one package, in that order.
func (e *Engine) pricePackage(ctx context.Context, cart Cart, pkg *Package) error {
	box, overCapacity := e.catalog.SelectBoxForItems(pkg.Items)
	pkg.Box = box
	pkg.OverCapacity = overCapacity
	if box != nil {
		pkg.BoxID = box.ID
	}
	pkg.BillableWeight = round2(e.catalog.BillableWeight(pkg.ActualWeight(), box))

	quotes, err := e.calc.Calculate(ctx, pkg)
	if err != nil {
		e.logger.Error("package rating failed",
			zap.String("package", pkg.ID),
			zap.Error(err),
		)
		return err
	}

	if rule := e.rules.Evaluate(cart, pkg); rule != nil && rule.Action.FreeShipping {
		pkg.FreeShippingRuleID = rule.ID
		for i := range quotes {
			if rule.Action.AppliesTo(quotes[i].Service) {
				quotes[i].Cost = 0
				quotes[i].FreeShippingApplied = true
			}
		}
	}

	for i := range quotes {
		est := e.estimator.Estimate(pkg.Location, quotes[i].Service, quotes[i].TransitDays)
		quotes[i].Estimate = &est
		if quotes[i].Service == ServiceGround {
			pkg.Estimate = &est
		}
	}

	pkg.Quotes = quotes
	pkg.ShipToStoreQuote = e.calc.ShipToStoreQuote(pkg, quotes)
	pkg.Fees = e.feeLines(pkg)
	return nil
}

// feeLines itemizes handling fees separately from markup-inflated rates.
func (e *Engine) feeLines(pkg *Package) []FeeLine {
	var fees []FeeLine
	fragile, signature := false, false
	for _, item := range pkg.Items {
		fragile = fragile || item.RequiresFragileHandling
		signature = signature || item.RequiresSignature
	}
	if fragile && e.cfg.Fees.FragileHandling > 0 {
		fees = append(fees, FeeLine{Code: FeeFragileHandling, Label: "Fragile Handling", Amount: e.cfg.Fees.FragileHandling})
	}
	if signature && e.cfg.Fees.SignatureRequired > 0 {
		fees = append(fees, FeeLine{Code: FeeSignatureRequired, Label: "Signature Required", Amount: e.cfg.Fees.SignatureRequired})
	}
	if pkg.OverCapacity && e.cfg.Fees.OverweightSurcharge > 0 {
		fees = append(fees, FeeLine{Code: FeeOverweightSurcharge, Label: "Overweight Surcharge", Amount: e.cfg.Fees.OverweightSurcharge})
	}
	return fees
}

// RoutingOptions computes the ship-together vs split decision for carts that
// span store- and warehouse-eligible profiles. Carts confined to one kind
// return nil: there is no choice to offer. The cheaper plan is recommended,
// ties favoring ship-together; the choice is presented, never auto-applied.
func (e *Engine) RoutingOptions(ctx context.Context, cart Cart) (*RoutingDecision, error) {
	ctx, span := e.startSpan(ctx, "engine.RoutingOptions")
	defer span.End()

	if !e.isMixedCart(cart) {
		return nil, nil
	}

	together := e.splitter.SplitForcedKind(cart, KindStore)
	split := e.splitter.Split(cart)

	togetherCost, err := e.pricePlan(ctx, cart, together)
	if err != nil {
		return nil, err
	}
	splitCost, err := e.pricePlan(ctx, cart, split)
	if err != nil {
		return nil, err
	}

	decision := &RoutingDecision{
		Plans: []RoutingPlan{
			{Name: PlanShipTogether, Packages: together, TotalCost: togetherCost},
			{Name: PlanSplit, Packages: split, TotalCost: splitCost},
		},
	}
	// Ties favor the plan listed first, ship-together.
	if togetherCost <= splitCost {
		decision.Plans[0].Recommended = true
	} else {
		decision.Plans[1].Recommended = true
	}
	return decision, nil
}

func (e *Engine) pricePlan(ctx context.Context, cart Cart, packages []*Package) (float64, error) {
	var total float64
	for _, pkg := range packages {
		if err := e.pricePackage(ctx, cart, pkg); err != nil {
			return 0, err
		}
		total += cheapestCost(pkg.Quotes)
	}
	return round2(total), nil
}

// cheapestCost returns the lowest non-free quote cost, counting free
// services as zero when nothing else is quoted.
func cheapestCost(quotes []RateQuote) float64 {
	if len(quotes) == 0 {
		return 0
	}
	best := quotes[0].Cost
	for _, q := range quotes[1:] {
		if q.Cost < best {
			best = q.Cost
		}
	}
	return best
}

// isMixedCart reports whether items resolve to both store-primary and
// warehouse-primary profiles.
func (e *Engine) isMixedCart(cart Cart) bool {
	resolver := NewProfileResolver(e.cfg)
	hasStore, hasWarehouse := false, false
	for _, item := range cart.Items {
		switch resolver.Resolve(item).PrimaryKind() {
		case KindStore:
			hasStore = true
		default:
			hasWarehouse = true
		}
	}
	return hasStore && hasWarehouse
}

// IsCheckoutBlocking reports whether an engine error is the one case where
// checkout cannot proceed (no shippable rate exists anywhere).
func IsCheckoutBlocking(err error) bool {
	return errors.Is(err, ErrRateUnavailable)
}

func (e *Engine) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if e.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return e.tracer.Start(ctx, name)
}
