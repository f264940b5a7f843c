package provider

// Resolver orders candidate providers for one unit: the preferred
// provider first (when known), then the registry's declaration order
// with the preferred id removed from its original position. Pure
// function of the hint and the registry snapshot, so the ordering is
// fully deterministic.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver over the given registry.
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve returns the ordered provider ids to attempt. An empty or
// unknown preferred id yields plain declaration order.
func (r *Resolver) Resolve(preferred string) []string {
	ids := r.registry.IDs()

	if preferred == "" || !r.registry.Has(preferred) {
		return ids
	}

	out := make([]string, 0, len(ids))
	out = append(out, preferred)
	for _, id := range ids {
		if id != preferred {
			out = append(out, id)
		}
	}
	return out
}
