package rating

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Admin-time validation. Read paths never validate; invalid records are
// rejected loudly when written.

var (
	validate  = validator.New()
	zipRe     = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	cutoffRe  = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)
	knownOps  = map[string]bool{">=": true, "<=": true, ">": true, "<": true, "=": true, "is": true, "is_not": true, "in_group": true, "has": true, "has_all": true, "has_any": true, "has_not": true}
	knownFlds = map[string]bool{"order_total": true, "item_count": true, "total_weight": true, "profile": true, "shipping_location": true, "customer_role": true, "product_tag": true, "product_category": true}
)

func invalid(kind, detail string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidRecord, kind, detail)
}

// ValidateAddress checks required fields and code formats.
func ValidateAddress(a Address) error {
	if err := validate.Struct(a); err != nil {
		return invalid("address", err.Error())
	}
	if a.State != strings.ToUpper(a.State) {
		return invalid("address", "state must be an uppercase 2-letter code")
	}
	if a.Country != strings.ToUpper(a.Country) {
		return invalid("address", "country must be an uppercase 2-letter code")
	}
	if a.Country == "US" && !zipRe.MatchString(a.PostalCode) {
		return invalid("address", "postal code must match 12345 or 12345-6789")
	}
	return nil
}

// ValidateLocation checks a location record.
func ValidateLocation(l Location) error {
	if err := validate.Struct(l); err != nil {
		return invalid("location", err.Error())
	}
	if err := ValidateAddress(l.Address); err != nil {
		return err
	}
	if l.Kind == KindDropshipWarehouse && l.SiteCode == "" {
		return invalid("location", "dropship warehouse requires a site code")
	}
	if l.CutoffTime != "" && !cutoffRe.MatchString(l.CutoffTime) {
		return invalid("location", "cutoff time must be HH:MM")
	}
	return nil
}

// ValidateProfile checks a shipping profile, including the pickup and
// ship-to-store invariants.
func ValidateProfile(p ShippingProfile) error {
	if err := validate.Struct(p); err != nil {
		return invalid("profile", err.Error())
	}
	if p.LocalPickupEnabled && !p.HasKind(KindStore) {
		return invalid("profile", "local pickup requires store in location kinds")
	}
	if p.ShipToStoreEnabled && (!p.HasKind(KindWarehouse) || !p.HasKind(KindStore)) {
		return invalid("profile", "ship to store requires both warehouse and store in location kinds")
	}
	if p.ShipToStoreEnabled && p.ShipToStoreMargin.Type != "" &&
		p.ShipToStoreMargin.Type != MarginPercentage && p.ShipToStoreMargin.Type != MarginFlat {
		return invalid("profile", "ship to store margin type must be percentage or flat")
	}
	return nil
}

// ValidateBox checks a box record.
func ValidateBox(b Box) error {
	if err := validate.Struct(b); err != nil {
		return invalid("box", err.Error())
	}
	if b.OuterDims.Length <= 0 || b.OuterDims.Width <= 0 || b.OuterDims.Height <= 0 {
		return invalid("box", "outer dimensions must be positive")
	}
	return nil
}

// ValidateRule checks a rule record, including field and operator names.
// Unknown names are rejected at write time even though the evaluator would
// degrade them to non-matches at read time.
func ValidateRule(r Rule) error {
	if err := validate.Struct(r); err != nil {
		return invalid("rule", err.Error())
	}
	if len(r.Conditions.Conditions) == 0 {
		return invalid("rule", "at least one condition is required")
	}
	for _, cond := range r.Conditions.Conditions {
		if !knownFlds[cond.Field] {
			return invalid("rule", fmt.Sprintf("unknown field %q", cond.Field))
		}
		if !knownOps[cond.Operator] {
			return invalid("rule", fmt.Sprintf("unknown operator %q", cond.Operator))
		}
	}
	return nil
}

// ValidateConfiguration checks every record in a configuration. Used at
// startup when the catalog file loads.
func ValidateConfiguration(cfg *Configuration) error {
	for _, l := range cfg.Locations {
		if err := ValidateLocation(l); err != nil {
			return fmt.Errorf("location %s: %w", l.ID, err)
		}
	}
	for _, p := range cfg.Profiles {
		if err := ValidateProfile(p); err != nil {
			return fmt.Errorf("profile %s: %w", p.ID, err)
		}
	}
	for _, b := range cfg.Boxes {
		if err := ValidateBox(b); err != nil {
			return fmt.Errorf("box %s: %w", b.ID, err)
		}
	}
	for _, r := range cfg.Rules {
		if err := ValidateRule(r); err != nil {
			return fmt.Errorf("rule %s: %w", r.ID, err)
		}
	}
	return nil
}
