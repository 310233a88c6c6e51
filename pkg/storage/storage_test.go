package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/msupdater/pkg/license"
	"github.com/sw33tLie/msupdater/pkg/network"
	"github.com/sw33tLie/msupdater/pkg/update"
)

const fixtureYAML = `
network:
  id: 1
  domain: Network.Example.com
  primary: 1
network_plugins:
  - widget-pro/widget-pro.php
  - seo-kit/seo-kit.php
sites:
  - id: 1
    domain: network.example.com
    registered: 2020-01-01T00:00:00Z
    plugins: [local-only/local-only.php]
  - id: 3
    domain: shop.example.com
    path: /shop/
    registered: 2020-02-01T00:00:00Z
    plugins: [widget-pro/widget-pro.php]
    licenses:
      - slug: widget-pro
        key: K-SHOP
        api_url: https://store.example.com
  - id: 2
    domain: spam.example.com
    registered: 2020-01-15T00:00:00Z
    spam: true
  - id: 4
    domain: private.example.com
    registered: 2020-03-01T00:00:00Z
    public: false
`

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func importTestFixture(t *testing.T, db *DB) {
	t.Helper()
	summary, err := db.ImportFixture(context.Background(), strings.NewReader(fixtureYAML))
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{NetworkID: 1, Sites: 4, Activations: 4, Licenses: 1}, summary)
}

func TestImportFixture_Store(t *testing.T) {
	db := openTestDB(t)
	importTestFixture(t, db)
	ctx := context.Background()

	sites, err := db.Sites(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sites, 4)
	assert.Equal(t, []network.SiteID{1, 2, 3, 4}, []network.SiteID{sites[0].ID, sites[1].ID, sites[2].ID, sites[3].ID})
	assert.True(t, sites[1].Spam)
	assert.False(t, sites[3].Public)
	assert.True(t, sites[2].Public)
	assert.Equal(t, "/shop/", sites[2].Path)
	assert.True(t, sites[2].Registered.Equal(time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)))

	primary, err := db.PrimarySite(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, primary)

	domain, err := db.PrimaryDomain(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "network.example.com", domain)

	_, err = db.PrimarySite(ctx, 9)
	assert.ErrorIs(t, err, ErrUnknownNetwork)

	wide, err := db.NetworkActivations(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"widget-pro/widget-pro.php", "seo-kit/seo-kit.php"}, wide)

	own, err := db.SiteActivations(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"widget-pro/widget-pro.php"}, own)

	none, err := db.SiteActivations(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, none)

	// The directory sees only the eligible sites.
	eligible, err := network.NewDirectory(db).ListSites(ctx, 1)
	require.NoError(t, err)
	require.Len(t, eligible, 2)
	assert.Equal(t, "https://shop.example.com/shop", eligible[1].URL())
}

func TestImportFixture_Replaces(t *testing.T) {
	db := openTestDB(t)
	importTestFixture(t, db)
	importTestFixture(t, db)

	stats, err := db.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Networks: 1, Sites: 4, EligibleSites: 2, SiteActivations: 2, NetworkActivations: 2, Licenses: 1}, stats)
}

func TestParseFixture_Invalid(t *testing.T) {
	tests := map[string]string{
		"no network":      "sites: []",
		"unknown field":   "network: {id: 1, domain: a.com}\nbogus: 1",
		"duplicate site":  "network: {id: 1, domain: a.com}\nsites:\n  - {id: 1, domain: a.com, registered: 2020-01-01T00:00:00Z}\n  - {id: 1, domain: b.com, registered: 2020-01-01T00:00:00Z}",
		"missing primary": "network: {id: 1, domain: a.com, primary: 5}",
		"no registration": "network: {id: 1, domain: a.com}\nsites:\n  - {id: 1, domain: a.com}",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFixture(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLookup(t *testing.T) {
	db := openTestDB(t)
	importTestFixture(t, db)
	ctx := context.Background()

	defaults := license.Candidate{ExtensionID: "widget-pro/widget-pro.php", Slug: "widget-pro", ItemName: "Widget Pro", Version: "1.0", APIURL: "https://fallback.example.com"}

	got := db.Lookup(ctx, defaults, 3)
	assert.Equal(t, "K-SHOP", got.License)
	assert.Equal(t, "https://store.example.com", got.APIURL)
	assert.Equal(t, "Widget Pro", got.ItemName)
	assert.Equal(t, "1.0", got.Version)

	assert.Equal(t, defaults, db.Lookup(ctx, defaults, 1))

	require.NoError(t, db.PutLicense(ctx, License{SiteID: 1, Slug: "widget-pro", Key: "K-NET"}))
	assert.Equal(t, "K-NET", db.Lookup(ctx, defaults, 1).License)

	// Usable as the host license integration.
	var _ license.Lookup = db
}

func TestUpdateCache_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	empty, err := db.LoadUpdateCache(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, empty.Response)

	cache := update.NewCache()
	cache.Inject(&update.Result{ExtensionID: "widget-pro/widget-pro.php", NewVersion: "1.1", Package: "https://p/1.1.zip", SiteID: 3, Sections: map[string]string{"changelog": "x"}})
	cache.MarkChecked("widget-pro/widget-pro.php", "1.0", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, db.SaveUpdateCache(ctx, 1, cache))
	require.NoError(t, db.SaveUpdateCache(ctx, 1, cache))

	loaded, err := db.LoadUpdateCache(ctx, 1)
	require.NoError(t, err)
	assert.True(t, loaded.HasPackage("widget-pro/widget-pro.php"))
	got, _ := loaded.Get("widget-pro/widget-pro.php")
	assert.EqualValues(t, 3, got.SiteID)
	assert.Equal(t, "1.0", loaded.Checked["widget-pro/widget-pro.php"])
	assert.True(t, loaded.LastChecked.Equal(cache.LastChecked))
}
