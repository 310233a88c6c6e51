// Package multisite runs license discovery and update checks across every
// site of a network.
package multisite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sw33tLie/msupdater/pkg/activation"
	"github.com/sw33tLie/msupdater/pkg/extension"
	"github.com/sw33tLie/msupdater/pkg/gate"
	"github.com/sw33tLie/msupdater/pkg/license"
	"github.com/sw33tLie/msupdater/pkg/network"
	"github.com/sw33tLie/msupdater/pkg/update"
)

// ErrNotLicensed is returned by Information when no site holds a complete
// license for the extension.
var ErrNotLicensed = errors.New("no site holds a complete license")

// Inspector reads installed extensions.
type Inspector interface {
	activation.Inspector
	Metadata(id string) (extension.Metadata, error)
}

// Config holds everything a Checker needs.
type Config struct {
	Store     network.Store
	NetworkID network.NetworkID
	Inspector Inspector
	// Lookups maps extension slugs to the host's license integration.
	Lookups *license.Registry
	Client  *update.Client
	// DefaultAPIURL is the licensing endpoint offered to lookups before an
	// extension's own Plugin URI.
	DefaultAPIURL string
	Gate          gate.Gate
	// InsecureSkipVerify must mirror the client's TLS setting. It is only
	// used to warn operators.
	InsecureSkipVerify bool
	Log                Logger           // optional; nil = no logging
	Now                func() time.Time // optional; defaults to time.Now
}

// Checker performs resolution runs. Runs must not overlap: callers serialize
// them.
type Checker struct {
	cfg Config
	log Logger
	now func() time.Time
}

func New(cfg Config) (*Checker, error) {
	switch {
	case cfg.Store == nil:
		return nil, errors.New("multisite: a site store is required")
	case cfg.Inspector == nil:
		return nil, errors.New("multisite: an extension inspector is required")
	case cfg.Client == nil:
		return nil, errors.New("multisite: an update client is required")
	}
	if cfg.Lookups == nil {
		cfg.Lookups = license.NewRegistry()
	}

	c := &Checker{cfg: cfg, log: cfg.Log, now: cfg.Now}
	if c.log == nil {
		c.log = nopLogger{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if cfg.InsecureSkipVerify {
		c.log.Warnf("TLS certificate verification is disabled for update requests")
	}
	return c, nil
}

// Check runs license discovery and an update check for every extension
// active anywhere on the network, injecting what it finds into cache.
//
// An unauthorized request returns a report with Authorized unset and
// touches nothing. Per-site and per-extension failures are recorded in the
// report; only a failure to list the network's sites is returned.
func (c *Checker) Check(ctx context.Context, run *activation.Run, req gate.Request, cache *update.Cache) (*Report, error) {
	if run == nil {
		run = activation.NewRun()
	}
	if cache == nil {
		cache = update.NewCache()
	}
	report := &Report{RunID: run.ID}

	if !c.cfg.Gate.IsAuthorized(req) {
		c.log.Debugf("Run %s: not in the network administration context, skipping", run.ID)
		return report, nil
	}
	report.Authorized = true

	dir := network.NewDirectory(c.cfg.Store)
	sites, err := dir.ListSites(ctx, c.cfg.NetworkID)
	if err != nil {
		return nil, err
	}
	report.Sites = len(sites)

	agg := activation.NewAggregator(dir, c.cfg.Inspector).Aggregate(ctx, run, sites)
	report.Active = agg.Active
	report.Skipped = agg.Skipped
	for _, err := range agg.Unreachable {
		c.log.Warnf("Skipping site: %v", err)
		report.Errors = append(report.Errors, err)
	}
	for _, s := range agg.Skipped {
		c.log.Debugf("Skipping %s (site %d): %s", s.ExtensionID, s.Site.ID, s.Reason)
	}
	c.log.Debugf("Run %s: %d sites, %d candidates", run.ID, len(sites), len(agg.Candidates))

	client := c.cfg.Client.Session()
	for _, cand := range agg.Candidates {
		if err := ctx.Err(); err != nil {
			report.Errors = append(report.Errors, err)
			break
		}
		out := c.checkOne(ctx, client, dir, sites, cand, cache, report)
		run.MarkResolved(cand.ExtensionID)
		report.Outcomes = append(report.Outcomes, out)
	}
	return report, nil
}

func (c *Checker) checkOne(ctx context.Context, client *update.Client, dir *network.Directory, sites []network.Site, cand activation.Record, cache *update.Cache, report *Report) Outcome {
	out := Outcome{ExtensionID: cand.ExtensionID, FoundOn: cand.Site.ID}

	meta, err := c.cfg.Inspector.Metadata(cand.ExtensionID)
	if err != nil {
		c.log.Warnf("Could not read %s: %v", cand.ExtensionID, err)
		out.Status = StatusUnreadable
		out.Err = err
		return out
	}

	// A cached package only counts while it is newer than what is installed.
	if cached, ok := cache.Get(cand.ExtensionID); ok && cached != nil {
		if cached.HasPackage() && update.Newer(cached.NewVersion, meta.Version) {
			out.Status = StatusCached
			out.Result = cached
			return out
		}
		if !update.Newer(cached.NewVersion, meta.Version) {
			c.log.Debugf("Dropping stale cached %s %s (installed %s)", cand.ExtensionID, cached.NewVersion, meta.Version)
			cache.Remove(cand.ExtensionID)
		}
	}

	rec, ok := c.resolve(ctx, dir, sites, meta, report)
	if !ok {
		c.log.Debugf("No site holds a complete license for %s", cand.ExtensionID)
		out.Status = StatusNotLicensed
		return out
	}
	out.LicenseSite = rec.SiteID

	res, err := client.Check(ctx, update.Request{Extension: meta, License: rec})
	switch {
	case errors.Is(err, update.ErrNoUpdate):
		out.Status = StatusNoUpdate
		out.Result = res
		cache.MarkChecked(cand.ExtensionID, rec.Version, c.now())
	case err != nil:
		// The cached state, if any, stays as it was.
		c.log.Warnf("Update check for %s failed: %v", cand.ExtensionID, err)
		out.Status = StatusRequestError
		out.Err = err
	default:
		out.Status = StatusUpdateAvailable
		out.Result = res
		cache.Inject(res)
		cache.MarkChecked(cand.ExtensionID, rec.Version, c.now())
		c.log.Infof("%s %s -> %s (license from site %d)", cand.ExtensionID, rec.Version, res.NewVersion, rec.SiteID)
	}
	return out
}

// resolve finds the first site holding a complete license for meta.
func (c *Checker) resolve(ctx context.Context, dir *network.Directory, sites []network.Site, meta extension.Metadata, report *Report) (license.Record, bool) {
	lookup, ok := c.cfg.Lookups.For(meta.Slug)
	if !ok {
		return license.Record{}, false
	}

	var active license.ActivityChecker
	if dir != nil {
		active = dir
	}
	rec, attempts, ok := license.NewResolver(lookup, active).Resolve(ctx, c.defaults(meta), sites)
	for _, a := range attempts {
		switch {
		case a.Err == nil:
		case license.IsIncomplete(a.Err):
			c.log.Debugf("%s: %v", meta.ID, a.Err)
		default:
			c.log.Warnf("%s: %v", meta.ID, a.Err)
			if report != nil {
				report.Errors = append(report.Errors, fmt.Errorf("%s: %w", meta.ID, a.Err))
			}
		}
	}
	return rec, ok
}

// defaults is the sparse candidate handed to license lookups.
func (c *Checker) defaults(meta extension.Metadata) license.Candidate {
	apiURL := c.cfg.DefaultAPIURL
	if apiURL == "" {
		apiURL = meta.URI
	}
	return license.Candidate{
		ExtensionID: meta.ID,
		Slug:        meta.Slug,
		ItemName:    meta.Name,
		Version:     meta.Version,
		APIURL:      apiURL,
		Author:      meta.Author,
	}
}
