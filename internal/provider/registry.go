package provider

import (
	"fmt"
	"sort"
)

// Descriptor is the static, immutable metadata for one generation
// backend, loaded from configuration at startup.
type Descriptor struct {
	// ID is the short provider name used in config and fallback chains.
	ID string

	// UpstreamModel is the backend's model identifier, e.g.
	// "kwaivgi/kling-v1.6-standard".
	UpstreamModel string

	// Capabilities tags what this backend can do, e.g. "video", "fast",
	// "hd".
	Capabilities map[string]bool

	// MaxUnitDurationSec caps the clip length this backend accepts.
	MaxUnitDurationSec int

	// DefaultParams seed the merged parameter set for every submit.
	DefaultParams map[string]any

	// PricePerUnit is the charge for one generated unit, in USD.
	PricePerUnit float64
}

// HasCapability reports whether the descriptor carries the given tag.
func (d Descriptor) HasCapability(tag string) bool {
	return d.Capabilities[tag]
}

// Registry holds the known provider descriptors in declaration order.
// Declaration order is the default fallback order, so it is preserved
// exactly as configured.
type Registry struct {
	order []string
	byID  map[string]Descriptor
}

// NewRegistry builds a registry from descriptors in the given order.
// Duplicate ids are rejected.
func NewRegistry(descs []Descriptor) (*Registry, error) {
	r := &Registry{byID: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		if d.ID == "" {
			return nil, fmt.Errorf("provider descriptor with empty id")
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate provider id %q", d.ID)
		}
		r.byID[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	return r, nil
}

// Get returns the descriptor for id.
func (r *Registry) Get(id string) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Has reports whether id is a known provider.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// IDs returns all provider ids in declaration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.order)
}

// WithCapability returns the ids of providers carrying the given tag,
// sorted for stable output.
func (r *Registry) WithCapability(tag string) []string {
	var out []string
	for id, d := range r.byID {
		if d.HasCapability(tag) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
