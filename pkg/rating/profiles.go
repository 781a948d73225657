package rating

// ProfileResolver centralizes the two-step profile resolution policy:
// explicit assignment, else tag-derived, else the default profile.
type ProfileResolver struct {
	cfg *Configuration
}

// NewProfileResolver creates a resolver over the configuration.
func NewProfileResolver(cfg *Configuration) *ProfileResolver {
	return &ProfileResolver{cfg: cfg}
}

// Resolve returns the shipping profile for an item. Resolution never fails:
// an item with no explicit assignment and no matching tag gets the default
// profile, and a missing default falls back to a warehouse-only stand-in so
// splitting always succeeds structurally.
func (r *ProfileResolver) Resolve(item CartItem) *ShippingProfile {
	if item.ProfileID != "" {
		if p, ok := r.cfg.ProfileByID(item.ProfileID); ok {
			return p
		}
	}
	for _, tag := range item.Tags {
		if id, ok := r.cfg.TagProfiles[tag]; ok {
			if p, ok := r.cfg.ProfileByID(id); ok {
				return p
			}
		}
	}
	if p, ok := r.cfg.ProfileByID(r.cfg.DefaultProfileID); ok {
		return p
	}
	return &ShippingProfile{
		ID:            "default",
		Name:          "Default",
		LocationKinds: []LocationKind{KindWarehouse},
	}
}
