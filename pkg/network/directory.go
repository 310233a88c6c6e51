package network

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrSiteUnreachable is returned when a site's activation store can't be read.
// It only ever concerns one site; callers skip that site and carry on.
var ErrSiteUnreachable = errors.New("site storage unreachable")

// Store is the host's read-only site and activation storage.
type Store interface {
	// Sites returns every site registered on the network, in any order.
	Sites(ctx context.Context, networkID NetworkID) ([]Site, error)
	// PrimarySite returns the network's administrative site.
	PrimarySite(ctx context.Context, networkID NetworkID) (SiteID, error)
	// SiteActivations returns the extensions activated on one site, in stored order.
	SiteActivations(ctx context.Context, siteID SiteID) ([]string, error)
	// NetworkActivations returns the network-wide activated extensions, in stored order.
	NetworkActivations(ctx context.Context, networkID NetworkID) ([]string, error)
}

// Directory enumerates the member sites of a network and their activations.
// A Directory belongs to a single resolution run.
type Directory struct {
	store   Store
	primary map[NetworkID]SiteID
}

func NewDirectory(store Store) *Directory {
	return &Directory{store: store, primary: make(map[NetworkID]SiteID)}
}

// ListSites returns the network's eligible sites ordered by registration time,
// oldest first. Sites registered at the same instant are ordered by id.
func (d *Directory) ListSites(ctx context.Context, networkID NetworkID) ([]Site, error) {
	all, err := d.store.Sites(ctx, networkID)
	if err != nil {
		return nil, fmt.Errorf("listing sites of network %d: %w", networkID, err)
	}

	sites := make([]Site, 0, len(all))
	for _, s := range all {
		if s.NetworkID != networkID || !s.Eligible() {
			continue
		}
		sites = append(sites, s)
	}

	sort.SliceStable(sites, func(i, j int) bool {
		if !sites[i].Registered.Equal(sites[j].Registered) {
			return sites[i].Registered.Before(sites[j].Registered)
		}
		return sites[i].ID < sites[j].ID
	})
	return sites, nil
}

// IsPrimary reports whether site is its network's administrative site.
func (d *Directory) IsPrimary(ctx context.Context, site Site) (bool, error) {
	id, ok := d.primary[site.NetworkID]
	if !ok {
		var err error
		id, err = d.store.PrimarySite(ctx, site.NetworkID)
		if err != nil {
			return false, fmt.Errorf("resolving primary site of network %d: %w", site.NetworkID, err)
		}
		d.primary[site.NetworkID] = id
	}
	return id == site.ID, nil
}

// Activations returns the extensions to scan for site. The primary site is
// sourced from the network-wide activation store, every other site from its
// own per-site store. Any storage failure is reported as ErrSiteUnreachable.
func (d *Directory) Activations(ctx context.Context, site Site) ([]string, error) {
	primary, err := d.IsPrimary(ctx, site)
	if err != nil {
		return nil, unreachable(site, err)
	}

	var exts []string
	if primary {
		exts, err = d.store.NetworkActivations(ctx, site.NetworkID)
	} else {
		exts, err = d.store.SiteActivations(ctx, site.ID)
	}
	if err != nil {
		return nil, unreachable(site, err)
	}
	return exts, nil
}

// OwnActivations returns the site's per-site activations, ignoring network-wide ones.
func (d *Directory) OwnActivations(ctx context.Context, site Site) ([]string, error) {
	exts, err := d.store.SiteActivations(ctx, site.ID)
	if err != nil {
		return nil, unreachable(site, err)
	}
	return exts, nil
}

// ActiveOn reports whether ext is active on site, either on the site itself
// or network-wide.
func (d *Directory) ActiveOn(ctx context.Context, site Site, ext string) (bool, error) {
	own, err := d.store.SiteActivations(ctx, site.ID)
	if err != nil {
		return false, unreachable(site, err)
	}
	for _, e := range own {
		if e == ext {
			return true, nil
		}
	}

	wide, err := d.store.NetworkActivations(ctx, site.NetworkID)
	if err != nil {
		return false, unreachable(site, err)
	}
	for _, e := range wide {
		if e == ext {
			return true, nil
		}
	}
	return false, nil
}

func unreachable(site Site, err error) error {
	return fmt.Errorf("site %d (%s%s): %w: %v", site.ID, site.Domain, site.Path, ErrSiteUnreachable, err)
}
