// Package networktest provides an in-memory network.Store for tests.
package networktest

import (
	"context"
	"errors"
	"time"

	"github.com/sw33tLie/msupdater/pkg/network"
)

// ErrUnreachable is returned for sites registered with Fail.
var ErrUnreachable = errors.New("networktest: storage unreachable")

// Store is an in-memory network.Store.
type Store struct {
	Primary      network.SiteID
	SiteList     []network.Site
	PerSite      map[network.SiteID][]string
	NetworkWide  []string
	Failing      map[network.SiteID]bool
	FailNetwork  bool
	ActivationQs int
}

// New returns an empty store whose primary site is primary.
func New(primary network.SiteID) *Store {
	return &Store{
		Primary: primary,
		PerSite: make(map[network.SiteID][]string),
		Failing: make(map[network.SiteID]bool),
	}
}

// AddSite registers a public, live site on network 1. Sites are registered a
// minute apart in call order.
func (s *Store) AddSite(id network.SiteID, domain string, exts ...string) network.Site {
	site := network.Site{
		ID:         id,
		NetworkID:  1,
		Domain:     domain,
		Path:       "/",
		Registered: time.Date(2020, 1, 1, 0, len(s.SiteList), 0, 0, time.UTC),
		Public:     true,
	}
	s.SiteList = append(s.SiteList, site)
	s.PerSite[id] = exts
	return site
}

// Fail makes every storage query for id fail.
func (s *Store) Fail(id network.SiteID) { s.Failing[id] = true }

func (s *Store) Sites(ctx context.Context, networkID network.NetworkID) ([]network.Site, error) {
	return append([]network.Site(nil), s.SiteList...), nil
}

func (s *Store) PrimarySite(ctx context.Context, networkID network.NetworkID) (network.SiteID, error) {
	return s.Primary, nil
}

func (s *Store) SiteActivations(ctx context.Context, siteID network.SiteID) ([]string, error) {
	s.ActivationQs++
	if s.Failing[siteID] {
		return nil, ErrUnreachable
	}
	return s.PerSite[siteID], nil
}

func (s *Store) NetworkActivations(ctx context.Context, networkID network.NetworkID) ([]string, error) {
	s.ActivationQs++
	if s.FailNetwork {
		return nil, ErrUnreachable
	}
	return s.NetworkWide, nil
}
