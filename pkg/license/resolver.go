package license

import (
	"context"
	"errors"

	"github.com/sw33tLie/msupdater/pkg/network"
)

// ActivityChecker reports whether an extension is active on a site.
type ActivityChecker interface {
	ActiveOn(ctx context.Context, site network.Site, ext string) (bool, error)
}

// Resolver walks a network's sites looking for one complete license.
type Resolver struct {
	lookup Lookup
	active ActivityChecker
}

// NewResolver builds a resolver around the extension's Lookup. When active is
// non-nil, sites on which the extension isn't active are not asked.
func NewResolver(lookup Lookup, active ActivityChecker) *Resolver {
	return &Resolver{lookup: lookup, active: active}
}

// Attempt is one site asked during a resolution.
type Attempt struct {
	SiteID network.SiteID
	Err    error
}

// Resolve asks each site in order and stops at the first complete license.
// Ties are broken purely by site order: any one license unlocks updates for
// the whole network. ok is false when no site holds a complete license.
func (r *Resolver) Resolve(ctx context.Context, defaults Candidate, sites []network.Site) (rec Record, attempts []Attempt, ok bool) {
	for _, site := range sites {
		if r.active != nil {
			active, err := r.active.ActiveOn(ctx, site, defaults.ExtensionID)
			if err != nil {
				attempts = append(attempts, Attempt{SiteID: site.ID, Err: err})
				continue
			}
			if !active {
				continue
			}
		}

		in := defaults
		in.SiteID = site.ID
		in.SiteURL = site.URL()

		got := r.lookup.Lookup(ctx, in, site.ID)
		// The originating site is ours to set, not the host's.
		got.ExtensionID = defaults.ExtensionID
		got.SiteID = site.ID
		if got.SiteURL == "" {
			got.SiteURL = site.URL()
		}

		rec, err := got.Validate()
		attempts = append(attempts, Attempt{SiteID: site.ID, Err: err})
		if err == nil {
			return rec, attempts, true
		}
	}
	return Record{}, attempts, false
}

// IsIncomplete reports whether err is an *IncompleteError.
func IsIncomplete(err error) bool {
	var ie *IncompleteError
	return errors.As(err, &ie)
}
