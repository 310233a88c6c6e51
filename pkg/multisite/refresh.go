package multisite

import (
	"context"
	"errors"
	"sort"

	"github.com/sw33tLie/msupdater/pkg/network"
	"github.com/sw33tLie/msupdater/pkg/update"
)

// Refresh revisits cache entries that were attributed to a site but came
// back without a package, and asks again with that site's license. A result
// is injected only when it now offers a package for a newer version.
func (c *Checker) Refresh(ctx context.Context, cache *update.Cache) ([]Outcome, error) {
	if cache == nil {
		return nil, nil
	}
	byID, err := c.sitesByID(ctx)
	if err != nil {
		return nil, err
	}

	exts := make([]string, 0, len(cache.Response))
	for ext := range cache.Response {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	client := c.cfg.Client.Session()
	var outcomes []Outcome
	for _, ext := range exts {
		cached := cache.Response[ext]
		if cached == nil || cached.HasPackage() || cached.SiteID == 0 {
			continue
		}
		out := Outcome{ExtensionID: ext, FoundOn: cached.SiteID}

		site, ok := byID[cached.SiteID]
		if !ok {
			c.log.Debugf("Site %d of %s is gone, not refreshing", cached.SiteID, ext)
			out.Status = StatusNotLicensed
			outcomes = append(outcomes, out)
			continue
		}
		meta, err := c.cfg.Inspector.Metadata(ext)
		if err != nil {
			out.Status = StatusUnreadable
			out.Err = err
			outcomes = append(outcomes, out)
			continue
		}
		// Only the site the entry came from is asked.
		rec, ok := c.resolve(ctx, nil, []network.Site{site}, meta, nil)
		if !ok {
			out.Status = StatusNotLicensed
			outcomes = append(outcomes, out)
			continue
		}
		out.LicenseSite = rec.SiteID

		res, err := client.Check(ctx, update.Request{Extension: meta, License: rec})
		switch {
		case err != nil && !errors.Is(err, update.ErrNoUpdate):
			c.log.Warnf("Refreshing %s failed: %v", ext, err)
			out.Status = StatusRequestError
			out.Err = err
		case err == nil && res.HasPackage():
			cache.Inject(res)
			out.Status = StatusUpdateAvailable
			out.Result = res
		default:
			out.Status = StatusNoUpdate
			out.Result = res
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// Information fetches the details of an installed extension using the first
// complete license on the network. When cache names a site for it, that site
// is asked first.
func (c *Checker) Information(ctx context.Context, ext string, cache *update.Cache) (*update.Information, error) {
	meta, err := c.cfg.Inspector.Metadata(ext)
	if err != nil {
		return nil, err
	}

	dir := network.NewDirectory(c.cfg.Store)
	sites, err := dir.ListSites(ctx, c.cfg.NetworkID)
	if err != nil {
		return nil, err
	}
	if cached, ok := cache.Get(ext); ok && cached.SiteID != 0 {
		sites = preferSite(sites, cached.SiteID)
	}

	rec, ok := c.resolve(ctx, dir, sites, meta, nil)
	if !ok {
		return nil, ErrNotLicensed
	}
	return c.cfg.Client.Session().Information(ctx, update.Request{Extension: meta, License: rec})
}

func (c *Checker) sitesByID(ctx context.Context) (map[network.SiteID]network.Site, error) {
	sites, err := network.NewDirectory(c.cfg.Store).ListSites(ctx, c.cfg.NetworkID)
	if err != nil {
		return nil, err
	}
	byID := make(map[network.SiteID]network.Site, len(sites))
	for _, s := range sites {
		byID[s.ID] = s
	}
	return byID, nil
}

// preferSite moves the site with id to the front, keeping the others in order.
func preferSite(sites []network.Site, id network.SiteID) []network.Site {
	out := make([]network.Site, 0, len(sites))
	for _, s := range sites {
		if s.ID == id {
			out = append(out, s)
		}
	}
	for _, s := range sites {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}
