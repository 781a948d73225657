package rating

import (
	"fmt"

	"github.com/google/uuid"
)

// Splitter groups cart items into shipment packages by profile, location
// kind, and packaging constraints.
type Splitter struct {
	cfg      *Configuration
	profiles *ProfileResolver
}

// NewSplitter creates a splitter over the configuration.
func NewSplitter(cfg *Configuration) *Splitter {
	return &Splitter{cfg: cfg, profiles: NewProfileResolver(cfg)}
}

// Split partitions the cart into packages. Splitting always succeeds
// structurally; an unshippable package is a downstream rating concern.
func (s *Splitter) Split(cart Cart) []*Package {
	return s.split(cart, "")
}

// SplitForcedKind partitions the cart as if every item were fulfilled from
// the given location kind. Used by the ship-together routing plan.
func (s *Splitter) SplitForcedKind(cart Cart, kind LocationKind) []*Package {
	return s.split(cart, kind)
}

func (s *Splitter) split(cart Cart, forcedKind LocationKind) []*Package {
	type group struct {
		pkg *Package
	}

	groups := make(map[string]*group)
	var order []string
	separateSeq := 0

	for _, item := range cart.Items {
		profile := s.profiles.Resolve(item)

		kind := profile.PrimaryKind()
		if forcedKind != "" {
			kind = forcedKind
		}

		bucket := "default"
		switch {
		case item.RequiresTube:
			bucket = "tube"
		case item.ShipsSeparately:
			// Unique bucket forces the item into its own package.
			bucket = fmt.Sprintf("separate-%d", separateSeq)
			separateSeq++
		}

		key := fmt.Sprintf("%s|%s|%s", profile.ID, kind, bucket)
		g, ok := groups[key]
		if !ok {
			g = &group{pkg: s.newPackage(profile, kind, cart.Destination)}
			groups[key] = g
			order = append(order, key)
		}
		g.pkg.Items = append(g.pkg.Items, item)
		g.pkg.LineTotal = round2(g.pkg.LineTotal + item.LineTotal())
	}

	packages := make([]*Package, 0, len(order))
	for _, key := range order {
		packages = append(packages, groups[key].pkg)
	}
	return packages
}

func (s *Splitter) newPackage(profile *ShippingProfile, kind LocationKind, dest Address) *Package {
	pkg := &Package{
		ID:           uuid.New().String(),
		Profile:      profile,
		ProfileID:    profile.ID,
		LocationKind: kind,
		Destination:  dest,
	}

	if loc := s.resolveLocation(kind); loc != nil {
		pkg.Location = loc
		pkg.LocationID = loc.ID
	}

	pkg.LocalPickupEligible = profile.LocalPickupEnabled && kind == KindStore
	pkg.ShipToStoreEligible = profile.ShipToStoreEnabled &&
		kind == KindWarehouse && profile.HasKind(KindStore)

	return pkg
}

// resolveLocation picks the highest-priority active location of a kind.
// Dropship warehouses resolve later through site selection, so the first
// active site stands in here as the nominal location.
func (s *Splitter) resolveLocation(kind LocationKind) *Location {
	locs := s.cfg.ActiveLocationsByKind(kind)
	if len(locs) == 0 {
		return nil
	}
	return locs[0]
}
