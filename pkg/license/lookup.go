package license

import (
	"context"

	"github.com/sw33tLie/msupdater/pkg/network"
)

// Lookup is the host-side licensing integration. Given a sparse default
// candidate it returns the candidate as completed for one site. Fields the
// host knows nothing about are returned unchanged.
type Lookup interface {
	Lookup(ctx context.Context, defaults Candidate, siteID network.SiteID) Candidate
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, defaults Candidate, siteID network.SiteID) Candidate

func (f LookupFunc) Lookup(ctx context.Context, defaults Candidate, siteID network.SiteID) Candidate {
	return f(ctx, defaults, siteID)
}

// Registry maps extension slugs to their Lookup.
type Registry struct {
	lookups map[string]Lookup
	// Fallback serves slugs without a dedicated Lookup. May be nil.
	Fallback Lookup
}

func NewRegistry() *Registry {
	return &Registry{lookups: make(map[string]Lookup)}
}

// Register sets the Lookup used for slug, replacing any previous one.
func (r *Registry) Register(slug string, l Lookup) {
	r.lookups[slug] = l
}

// For returns the Lookup for slug.
func (r *Registry) For(slug string) (Lookup, bool) {
	if l, ok := r.lookups[slug]; ok {
		return l, true
	}
	if r.Fallback != nil {
		return r.Fallback, true
	}
	return nil, false
}
