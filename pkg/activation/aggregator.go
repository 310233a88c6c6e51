// Package activation merges per-site activation lists into the set of
// extensions that need an update check.
package activation

import (
	"context"
	"sort"

	"github.com/sw33tLie/msupdater/pkg/network"
)

// Reasons an activation is left out of the candidate set.
const (
	SkipResolved     = "already resolved in this run"
	SkipMissing      = "extension file no longer exists"
	SkipNotUpdatable = "extension is not externally updatable"
)

// Directory is the part of network.Directory the aggregator needs.
type Directory interface {
	IsPrimary(ctx context.Context, site network.Site) (bool, error)
	Activations(ctx context.Context, site network.Site) ([]string, error)
	OwnActivations(ctx context.Context, site network.Site) ([]string, error)
}

// Inspector is the part of extension.Inspector the aggregator needs.
type Inspector interface {
	Exists(id string) bool
	Updatable(id string) bool
}

// Record attributes an activated extension to the first site it was found on.
type Record struct {
	ExtensionID string
	Site        network.Site
}

// Skipped is an activation dropped by one of the candidate checks.
type Skipped struct {
	Record
	Reason string
}

// Aggregation is the outcome of one aggregation pass.
type Aggregation struct {
	// Candidates are the extensions needing resolution, in discovery order.
	Candidates []Record
	// Active is the sorted union of the primary site's own activations and
	// every candidate, suitable as the host's active-extensions override.
	Active []string
	// Skipped lists first occurrences rejected by a check.
	Skipped []Skipped
	// Unreachable holds one error per site whose storage couldn't be read.
	Unreachable []error
}

type Aggregator struct {
	dir       Directory
	inspector Inspector
}

func NewAggregator(dir Directory, inspector Inspector) *Aggregator {
	return &Aggregator{dir: dir, inspector: inspector}
}

// Aggregate walks sites in the given order and each site's activations in
// stored order. The first occurrence of an extension wins; later duplicates
// are dropped silently, whether or not the first one passed the checks.
func (a *Aggregator) Aggregate(ctx context.Context, run *Run, sites []network.Site) *Aggregation {
	out := &Aggregation{}
	encountered := make(map[string]bool)
	active := make(map[string]bool)

	for _, site := range sites {
		exts, err := a.dir.Activations(ctx, site)
		if err != nil {
			out.Unreachable = append(out.Unreachable, err)
			continue
		}

		if primary, err := a.dir.IsPrimary(ctx, site); err == nil && primary {
			own, err := a.dir.OwnActivations(ctx, site)
			if err != nil {
				out.Unreachable = append(out.Unreachable, err)
			}
			for _, ext := range own {
				active[ext] = true
			}
		}

		for _, ext := range exts {
			if encountered[ext] {
				continue
			}
			encountered[ext] = true

			rec := Record{ExtensionID: ext, Site: site}
			if reason := a.check(run, ext); reason != "" {
				out.Skipped = append(out.Skipped, Skipped{Record: rec, Reason: reason})
				continue
			}
			out.Candidates = append(out.Candidates, rec)
			active[ext] = true
		}
	}

	out.Active = make([]string, 0, len(active))
	for ext := range active {
		out.Active = append(out.Active, ext)
	}
	sort.Strings(out.Active)
	return out
}

func (a *Aggregator) check(run *Run, ext string) string {
	switch {
	case run != nil && run.Resolved(ext):
		return SkipResolved
	case !a.inspector.Exists(ext):
		return SkipMissing
	case !a.inspector.Updatable(ext):
		return SkipNotUpdatable
	}
	return ""
}
