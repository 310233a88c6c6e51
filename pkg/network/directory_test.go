package network_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/msupdater/pkg/network"
	"github.com/sw33tLie/msupdater/pkg/network/networktest"
)

func siteIDs(sites []network.Site) []network.SiteID {
	ids := make([]network.SiteID, 0, len(sites))
	for _, s := range sites {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestListSites_FiltersAndOrders(t *testing.T) {
	store := networktest.New(1)
	base := time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)
	store.SiteList = []network.Site{
		{ID: 4, NetworkID: 1, Domain: "d.example", Registered: base.Add(3 * time.Hour), Public: true},
		{ID: 1, NetworkID: 1, Domain: "a.example", Registered: base, Public: true},
		{ID: 3, NetworkID: 1, Domain: "c.example", Registered: base.Add(time.Hour), Public: true},
		{ID: 2, NetworkID: 1, Domain: "b.example", Registered: base.Add(time.Hour), Public: true},
		{ID: 5, NetworkID: 1, Domain: "private.example", Registered: base, Public: false},
		{ID: 6, NetworkID: 1, Domain: "old.example", Registered: base, Public: true, Archived: true},
		{ID: 7, NetworkID: 1, Domain: "adult.example", Registered: base, Public: true, Mature: true},
		{ID: 8, NetworkID: 1, Domain: "spam.example", Registered: base, Public: true, Spam: true},
		{ID: 9, NetworkID: 1, Domain: "gone.example", Registered: base, Public: true, Deleted: true},
		{ID: 10, NetworkID: 2, Domain: "other.example", Registered: base, Public: true},
	}

	sites, err := network.NewDirectory(store).ListSites(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []network.SiteID{1, 2, 3, 4}, siteIDs(sites))
}

func TestActivations_PrimaryUsesNetworkWideList(t *testing.T) {
	store := networktest.New(1)
	primary := store.AddSite(1, "example.com", "own/own.php")
	other := store.AddSite(2, "shop.example.com", "shop/shop.php")
	store.NetworkWide = []string{"wide/wide.php"}

	dir := network.NewDirectory(store)
	ctx := context.Background()

	got, err := dir.Activations(ctx, primary)
	require.NoError(t, err)
	assert.Equal(t, []string{"wide/wide.php"}, got)

	got, err = dir.Activations(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, []string{"shop/shop.php"}, got)

	own, err := dir.OwnActivations(ctx, primary)
	require.NoError(t, err)
	assert.Equal(t, []string{"own/own.php"}, own)
}

func TestActivations_UnreachableSite(t *testing.T) {
	store := networktest.New(1)
	store.AddSite(1, "example.com")
	broken := store.AddSite(2, "broken.example.com", "x/x.php")
	store.Fail(2)

	got, err := network.NewDirectory(store).Activations(context.Background(), broken)
	assert.Empty(t, got)
	assert.True(t, errors.Is(err, network.ErrSiteUnreachable))
}

func TestActiveOn(t *testing.T) {
	store := networktest.New(1)
	store.AddSite(1, "example.com")
	site := store.AddSite(2, "blog.example.com", "local/local.php")
	store.NetworkWide = []string{"wide/wide.php"}

	dir := network.NewDirectory(store)
	ctx := context.Background()

	for ext, want := range map[string]bool{
		"local/local.php": true,
		"wide/wide.php":   true,
		"none/none.php":   false,
	} {
		got, err := dir.ActiveOn(ctx, site, ext)
		require.NoError(t, err)
		assert.Equal(t, want, got, ext)
	}
}

func TestSite_URLAndRootDomain(t *testing.T) {
	s := network.Site{Domain: "Blog.Example.co.uk", Path: "/news/"}
	assert.Equal(t, "https://blog.example.co.uk/news", s.URL())
	assert.Equal(t, "example.co.uk", s.RootDomain())

	root := network.Site{Domain: "example.com", Path: "/"}
	assert.Equal(t, "https://example.com", root.URL())
}
