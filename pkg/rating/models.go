// Package rating implements the shipping-rate orchestration engine:
// package splitting, box selection, carrier rate calculation, free-shipping
// rule evaluation, and delivery date estimation for a multi-location store.
package rating

import (
	"math"
	"time"
)

// ServiceCode identifies a shipping service level.
type ServiceCode string

const (
	ServiceGround   ServiceCode = "ground"
	ServiceTwoDay   ServiceCode = "2day"
	ServiceNextDay  ServiceCode = "nextday"
	ServiceThreeDay ServiceCode = "3day"
	ServiceSaver    ServiceCode = "saver"

	// ServiceAll asks a RateSource for every service in one call.
	ServiceAll ServiceCode = "all"
)

// serviceLabels maps service codes to customer-facing names.
var serviceLabels = map[ServiceCode]string{
	ServiceGround:   "Ground",
	ServiceTwoDay:   "2nd Day Air",
	ServiceNextDay:  "Next Day Air",
	ServiceThreeDay: "3 Day Select",
	ServiceSaver:    "Next Day Air Saver",
}

// defaultTransitDays is the fixed per-service transit lookup used when a
// rate source supplies no transit estimate.
var defaultTransitDays = map[ServiceCode]int{
	ServiceGround:   5,
	ServiceTwoDay:   2,
	ServiceNextDay:  1,
	ServiceThreeDay: 3,
	ServiceSaver:    1,
}

// Label returns the customer-facing name for a service code.
func (s ServiceCode) Label() string {
	if l, ok := serviceLabels[s]; ok {
		return l
	}
	return string(s)
}

// TransitDays returns the default transit estimate for a service code.
func (s ServiceCode) TransitDays() int {
	if d, ok := defaultTransitDays[s]; ok {
		return d
	}
	return defaultTransitDays[ServiceGround]
}

// LocationKind classifies a fulfillment location.
type LocationKind string

const (
	KindStore             LocationKind = "store"
	KindWarehouse         LocationKind = "warehouse"
	KindDropshipWarehouse LocationKind = "dropship_warehouse"
)

// Capability describes what a location can do.
type Capability string

const (
	CapabilityShipping      Capability = "shipping"
	CapabilityPickup        Capability = "pickup"
	CapabilityLocalDelivery Capability = "local_delivery"
)

// CalendarRef selects which holiday calendar governs a location's processing.
type CalendarRef string

const (
	StoreCalendar   CalendarRef = "store_calendar"
	CarrierCalendar CalendarRef = "carrier_calendar"
)

// BoxType classifies packaging.
type BoxType string

const (
	BoxEnvelope BoxType = "envelope"
	BoxStandard BoxType = "box"
	BoxTube     BoxType = "tube"
)

// MarginType distinguishes percentage from flat margins and markups.
type MarginType string

const (
	MarginPercentage MarginType = "percentage"
	MarginFlat       MarginType = "flat"
)

// Dimensions are outer or inner measurements in inches.
type Dimensions struct {
	Length float64 `yaml:"length" json:"length"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Volume returns L*W*H in cubic inches.
func (d Dimensions) Volume() float64 {
	return d.Length * d.Width * d.Height
}

// Address is a shipping origin or destination.
type Address struct {
	Company    string `yaml:"company" json:"company,omitempty" validate:"omitempty"`
	Street     string `yaml:"street" json:"street" validate:"required"`
	City       string `yaml:"city" json:"city" validate:"required"`
	State      string `yaml:"state" json:"state" validate:"required,len=2"`
	PostalCode string `yaml:"postal_code" json:"postalCode" validate:"required"`
	Country    string `yaml:"country" json:"country" validate:"required,len=2"`
}

// CartItem is one line item in a rate-calculation request.
// Immutable for the duration of a calculation pass.
type CartItem struct {
	ProductID               string      `json:"productId"`
	Quantity                int         `json:"quantity"`
	UnitWeight              float64     `json:"unitWeight"`
	UnitDims                *Dimensions `json:"unitDims,omitempty"`
	UnitPrice               float64     `json:"unitPrice"`
	RequiresTube            bool        `json:"requiresTube"`
	ShipsSeparately         bool        `json:"shipsSeparately"`
	RequiresFragileHandling bool        `json:"requiresFragileHandling"`
	RequiresSignature       bool        `json:"requiresSignature"`
	ProfileID               string      `json:"profileId,omitempty"`
	PreferredBoxID          string      `json:"preferredBoxId,omitempty"`
	Tags                    []string    `json:"tags,omitempty"`
	Categories              []string    `json:"categories,omitempty"`

	// Product-level markup applied to every rate on packages containing
	// this item. Zero MarkupValue means no markup.
	MarkupType  MarginType `json:"markupType,omitempty"`
	MarkupValue float64    `json:"markupValue,omitempty"`
}

// LineWeight returns unit weight times quantity.
func (i CartItem) LineWeight() float64 {
	return i.UnitWeight * float64(i.Quantity)
}

// LineTotal returns unit price times quantity.
func (i CartItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// LineVolume returns unit volume times quantity, or 0 when dimensions are
// unknown.
func (i CartItem) LineVolume() float64 {
	if i.UnitDims == nil {
		return 0
	}
	return i.UnitDims.Volume() * float64(i.Quantity)
}

// Cart is the snapshot of a checkout handed to the engine.
type Cart struct {
	Items        []CartItem `json:"items"`
	Destination  Address    `json:"destination"`
	CustomerRole string     `json:"customerRole,omitempty"`
	Currency     string     `json:"currency,omitempty"`
}

// Total returns the cart's order total.
func (c Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

// ItemCount returns the total unit count across line items.
func (c Cart) ItemCount() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Weight returns the total actual weight of the cart.
func (c Cart) Weight() float64 {
	var w float64
	for _, item := range c.Items {
		w += item.LineWeight()
	}
	return w
}

// Margin is a percentage or flat amount applied to a cost.
type Margin struct {
	Type  MarginType `yaml:"type" json:"type" validate:"omitempty,oneof=percentage flat"`
	Value float64    `yaml:"value" json:"value" validate:"gte=0"`
}

// Apply returns cost with the margin added.
func (m Margin) Apply(cost float64) float64 {
	switch m.Type {
	case MarginPercentage:
		return round2(cost * (1 + m.Value/100))
	case MarginFlat:
		return round2(cost + m.Value)
	default:
		return cost
	}
}

// ShippingProfile groups products by how they are fulfilled.
type ShippingProfile struct {
	ID                 string         `yaml:"id" json:"id" validate:"required"`
	Name               string         `yaml:"name" json:"name" validate:"required"`
	LocationKinds      []LocationKind `yaml:"location_kinds" json:"locationKinds" validate:"required,min=1,dive,oneof=store warehouse dropship_warehouse"`
	LocalPickupEnabled bool           `yaml:"local_pickup_enabled" json:"localPickupEnabled"`
	ShipToStoreEnabled bool           `yaml:"ship_to_store_enabled" json:"shipToStoreEnabled"`
	ShipToStoreMargin  Margin         `yaml:"ship_to_store_margin" json:"shipToStoreMargin"`
	ShipToStoreLabel   string         `yaml:"ship_to_store_label" json:"shipToStoreLabel"`
}

// HasKind reports whether the profile may use the given location kind.
func (p ShippingProfile) HasKind(kind LocationKind) bool {
	for _, k := range p.LocationKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// PrimaryKind returns the first (preferred) fulfillment location kind.
func (p ShippingProfile) PrimaryKind() LocationKind {
	if len(p.LocationKinds) == 0 {
		return KindWarehouse
	}
	return p.LocationKinds[0]
}

// Location is one fulfillment location.
type Location struct {
	ID              string                  `yaml:"id" json:"id" validate:"required"`
	Name            string                  `yaml:"name" json:"name" validate:"required"`
	Kind            LocationKind            `yaml:"kind" json:"kind" validate:"required,oneof=store warehouse dropship_warehouse"`
	SiteCode        string                  `yaml:"site_code" json:"siteCode,omitempty"`
	Address         Address                 `yaml:"address" json:"address"`
	Capabilities    []Capability            `yaml:"capabilities" json:"capabilities" validate:"dive,oneof=shipping pickup local_delivery"`
	Services        []ServiceCode           `yaml:"services" json:"services" validate:"dive,oneof=ground 2day nextday 3day saver"`
	ProcessingDays  int                     `yaml:"processing_days" json:"processingDays" validate:"gte=0"`
	CutoffTime      string                  `yaml:"cutoff_time" json:"cutoffTime"`
	HolidayCalendar CalendarRef             `yaml:"holiday_calendar" json:"holidayCalendar" validate:"omitempty,oneof=store_calendar carrier_calendar"`
	Priority        int                     `yaml:"priority" json:"priority"`
	Active          bool                    `yaml:"active" json:"active"`
	FallbackRates   map[ServiceCode]float64 `yaml:"fallback_rates" json:"fallbackRates,omitempty"`
}

// SupportsService reports whether the location offers the given service.
func (l Location) SupportsService(s ServiceCode) bool {
	for _, svc := range l.Services {
		if svc == s {
			return true
		}
	}
	return false
}

// Box is one entry in the box catalog.
type Box struct {
	ID        string      `yaml:"id" json:"id" validate:"required"`
	Name      string      `yaml:"name" json:"name" validate:"required"`
	Type      BoxType     `yaml:"type" json:"type" validate:"required,oneof=envelope box tube"`
	InnerDims *Dimensions `yaml:"inner_dims" json:"innerDims,omitempty"`
	OuterDims Dimensions  `yaml:"outer_dims" json:"outerDims"`
	MaxWeight float64     `yaml:"max_weight" json:"maxWeight" validate:"gt=0"`
	Cost      float64     `yaml:"cost" json:"cost" validate:"gte=0"`
	Active    bool        `yaml:"active" json:"active"`
}

// ConditionType joins a rule's conditions with AND or OR semantics.
type ConditionType string

const (
	ConditionAll ConditionType = "all"
	ConditionAny ConditionType = "any"
)

// Condition is one field/operator/value triple inside a rule.
type Condition struct {
	Field    string `yaml:"field" json:"field"`
	Operator string `yaml:"operator" json:"operator"`
	Value    string `yaml:"value" json:"value"`

	// Values is used by multi-value set operators (has_all, has_any).
	Values []string `yaml:"values" json:"values,omitempty"`
}

// ConditionGroup is a rule's condition list plus join semantics.
type ConditionGroup struct {
	Type       ConditionType `yaml:"type" json:"type" validate:"required,oneof=all any"`
	Conditions []Condition   `yaml:"conditions" json:"conditions"`
}

// RuleAction is what a matching rule does.
type RuleAction struct {
	FreeShipping bool          `yaml:"free_shipping" json:"freeShipping"`
	Services     []ServiceCode `yaml:"services" json:"services" validate:"dive,oneof=ground 2day nextday 3day saver"`
}

// AppliesTo reports whether the action covers a service. An empty service
// list covers every service.
func (a RuleAction) AppliesTo(s ServiceCode) bool {
	if len(a.Services) == 0 {
		return true
	}
	for _, svc := range a.Services {
		if svc == s {
			return true
		}
	}
	return false
}

// Rule is one conditional shipping rule. Lower priority evaluates first.
type Rule struct {
	ID         string         `yaml:"id" json:"id" validate:"required"`
	Name       string         `yaml:"name" json:"name" validate:"required"`
	Priority   int            `yaml:"priority" json:"priority"`
	Conditions ConditionGroup `yaml:"conditions" json:"conditions"`
	Action     RuleAction     `yaml:"action" json:"action"`
	Active     bool           `yaml:"active" json:"active"`
}

// RateQuote is one priced service option for a package.
type RateQuote struct {
	Service             ServiceCode       `json:"service"`
	Label               string            `json:"label"`
	Cost                float64           `json:"cost"`
	TransitDays         int               `json:"transitDays"`
	FreeShippingApplied bool              `json:"freeShippingApplied"`
	Estimated           bool              `json:"estimated"`
	Estimate            *DeliveryEstimate `json:"estimate,omitempty"`
}

// FeeLine is an itemized handling fee, always separate from rates.
type FeeLine struct {
	Code   string  `json:"code"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// Fee line codes.
const (
	FeeFragileHandling     = "fragile_handling"
	FeeSignatureRequired   = "signature_required"
	FeeOverweightSurcharge = "overweight_surcharge"
)

// DeliveryEstimate is a promised ship/delivery window.
type DeliveryEstimate struct {
	ShipDate     time.Time `json:"shipDate"`
	DeliveryDate time.Time `json:"deliveryDate"`
	RangeLabel   string    `json:"rangeLabel"`
}

// WarehouseSelection records the outcome of dropship site selection.
type WarehouseSelection struct {
	SiteID       string  `json:"siteId"`
	SiteCode     string  `json:"siteCode"`
	BaseCost     float64 `json:"baseCost"`
	FinalCost    float64 `json:"finalCost"`
	TransitDays  int     `json:"transitDays"`
	UsedFallback bool    `json:"usedFallback"`
}

// Package is one shipment derived from a cart. It is constructed by the
// splitter and then has cost, fee, and estimate fields attached in sequence;
// nothing else mutates it.
type Package struct {
	ID                  string              `json:"id"`
	Items               []CartItem          `json:"items"`
	Destination         Address             `json:"destination"`
	Profile             *ShippingProfile    `json:"-"`
	ProfileID           string              `json:"profileId"`
	Location            *Location           `json:"-"`
	LocationID          string              `json:"locationId,omitempty"`
	LocationKind        LocationKind        `json:"locationKind"`
	Box                 *Box                `json:"-"`
	BoxID               string              `json:"boxId,omitempty"`
	OverCapacity        bool                `json:"overCapacity,omitempty"`
	BillableWeight      float64             `json:"billableWeight"`
	LineTotal           float64             `json:"lineTotal"`
	LocalPickupEligible bool                `json:"localPickupEligible"`
	ShipToStoreEligible bool                `json:"shipToStoreEligible"`
	Quotes              []RateQuote         `json:"quotes,omitempty"`
	ShipToStoreQuote    *RateQuote          `json:"shipToStoreQuote,omitempty"`
	Fees                []FeeLine           `json:"fees,omitempty"`
	FreeShippingRuleID  string              `json:"freeShippingRuleId,omitempty"`
	Warehouse           *WarehouseSelection `json:"warehouse,omitempty"`
	Estimate            *DeliveryEstimate   `json:"estimate,omitempty"`
}

// ActualWeight sums the line weights of the package's items.
func (p Package) ActualWeight() float64 {
	var w float64
	for _, item := range p.Items {
		w += item.LineWeight()
	}
	return w
}

// ItemCount returns the total unit count in the package.
func (p Package) ItemCount() int {
	var n int
	for _, item := range p.Items {
		n += item.Quantity
	}
	return n
}

// Routing plan names.
const (
	PlanShipTogether = "ship_together"
	PlanSplit        = "split"
)

// RoutingPlan is one costed fulfillment plan for a mixed-location cart.
type RoutingPlan struct {
	Name        string     `json:"name"`
	Packages    []*Package `json:"packages"`
	TotalCost   float64    `json:"totalCost"`
	Recommended bool       `json:"recommended"`
}

// RoutingDecision presents the ship-together vs split choice. It is offered
// to the customer, never auto-applied.
type RoutingDecision struct {
	Plans []RoutingPlan `json:"plans"`
}

// FeeSchedule holds the fixed handling fee amounts.
type FeeSchedule struct {
	FragileHandling     float64 `yaml:"fragile_handling" json:"fragileHandling"`
	SignatureRequired   float64 `yaml:"signature_required" json:"signatureRequired"`
	OverweightSurcharge float64 `yaml:"overweight_surcharge" json:"overweightSurcharge"`
}

// CombineStrategy merges same-service rates across locations in the legacy
// combined-rate mode.
type CombineStrategy string

const (
	CombineHighest CombineStrategy = "highest"
	CombineSum     CombineStrategy = "sum"
)

// Configuration is the full static input to a calculation pass. It is
// threaded explicitly through every component; there is no ambient state.
type Configuration struct {
	Locations        []Location          `yaml:"locations"`
	Profiles         []ShippingProfile   `yaml:"profiles"`
	DefaultProfileID string              `yaml:"default_profile_id"`
	TagProfiles      map[string]string   `yaml:"tag_profiles"`
	Boxes            []Box               `yaml:"boxes"`
	Rules            []Rule              `yaml:"rules"`
	LocationGroups   map[string][]string `yaml:"location_groups"`
	StoreHolidays    []string            `yaml:"store_holidays"` // YYYY-MM-DD
	Fees             FeeSchedule         `yaml:"fees"`

	// DimDivisor is the single global dimensional-weight divisor.
	DimDivisor float64 `yaml:"dim_divisor"`

	// DropshipMarkup multiplies every dropship site's base cost.
	DropshipMarkup float64 `yaml:"dropship_markup"`

	// DefaultDropshipSiteID is the fallback site when every site query fails.
	DefaultDropshipSiteID string `yaml:"default_dropship_site_id"`

	CombinedRateStrategy CombineStrategy `yaml:"combined_rate_strategy"`

	// Legacy "free shipping over $X" threshold, migrated once into a rule.
	LegacyFreeShippingThreshold *float64 `yaml:"legacy_free_shipping_threshold"`
	LegacyThresholdMigrated     bool     `yaml:"legacy_threshold_migrated"`
}

// Defaults used when Configuration leaves knobs unset.
const (
	DefaultDimDivisor     = 166.0
	DefaultDropshipMarkup = 1.55
)

// EffectiveDimDivisor returns the configured divisor or the default.
func (c *Configuration) EffectiveDimDivisor() float64 {
	if c.DimDivisor > 0 {
		return c.DimDivisor
	}
	return DefaultDimDivisor
}

// EffectiveDropshipMarkup returns the configured markup or the default.
func (c *Configuration) EffectiveDropshipMarkup() float64 {
	if c.DropshipMarkup > 0 {
		return c.DropshipMarkup
	}
	return DefaultDropshipMarkup
}

// EffectiveCombineStrategy returns the configured strategy or "highest".
func (c *Configuration) EffectiveCombineStrategy() CombineStrategy {
	if c.CombinedRateStrategy == CombineSum {
		return CombineSum
	}
	return CombineHighest
}

// ProfileByID returns a profile by id.
func (c *Configuration) ProfileByID(id string) (*ShippingProfile, bool) {
	for i := range c.Profiles {
		if c.Profiles[i].ID == id {
			return &c.Profiles[i], true
		}
	}
	return nil, false
}

// LocationByID returns a location by id.
func (c *Configuration) LocationByID(id string) (*Location, bool) {
	for i := range c.Locations {
		if c.Locations[i].ID == id {
			return &c.Locations[i], true
		}
	}
	return nil, false
}

// ActiveLocationsByKind returns active locations of a kind ordered by
// routing priority (lower first), ties kept in configuration order.
func (c *Configuration) ActiveLocationsByKind(kind LocationKind) []*Location {
	var out []*Location
	for i := range c.Locations {
		if c.Locations[i].Active && c.Locations[i].Kind == kind {
			out = append(out, &c.Locations[i])
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Priority < out[j-1].Priority; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// round2 rounds to 2 decimals, the money and weight precision everywhere.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round2 is the exported form for callers outside the package.
func Round2(v float64) float64 { return round2(v) }
