package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/msupdater/pkg/extension"
	"github.com/sw33tLie/msupdater/pkg/license"
	"github.com/sw33tLie/msupdater/pkg/multisite"
	"github.com/sw33tLie/msupdater/pkg/storage"
	"github.com/sw33tLie/msupdater/pkg/update"
)

const networkYAML = `
network: {id: 1, domain: network.example.com, primary: 1}
network_plugins: [widget-pro/widget-pro.php]
sites:
  - id: 1
    domain: network.example.com
    registered: 2020-01-01T00:00:00Z
  - id: 2
    domain: shop.example.com
    registered: 2020-02-01T00:00:00Z
    plugins: [widget-pro/widget-pro.php]
    licenses:
      - {slug: widget-pro, key: K-SHOP}
`

func newTestServer(t *testing.T, user, pass string) (*Server, *storage.DB) {
	t.Helper()

	updates := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"new_version": "2.0", "name": "Widget Pro", "package": "https://store.example.com/w.zip", "tested": "6.5"}`))
	}))
	t.Cleanup(updates.Close)

	db, err := storage.Open(filepath.Join(t.TempDir(), "server.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.ImportFixture(context.Background(), strings.NewReader(networkYAML))
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/plugins/widget-pro/widget-pro.php",
		[]byte("<?php\n/*\nPlugin Name: Widget Pro\nVersion: 1.0\nUpdateable: yes\n*/"), 0o644))

	client, err := update.NewClient(update.Config{Timeout: 2 * time.Second})
	require.NoError(t, err)

	lookups := license.NewRegistry()
	lookups.Fallback = db
	checker, err := multisite.New(multisite.Config{
		Store:         db,
		NetworkID:     1,
		Inspector:     extension.NewInspector(fs, "/plugins"),
		Lookups:       lookups,
		Client:        client,
		DefaultAPIURL: updates.URL,
	})
	require.NoError(t, err)

	return New(db, checker, 1, user, pass), db
}

func do(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSites(t *testing.T) {
	s, _ := newTestServer(t, "", "")
	rec := do(t, s.Handler(), http.MethodGet, "/api/sites", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var sites []siteView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sites))
	require.Len(t, sites, 2)
	assert.True(t, sites[0].Primary)
	assert.Equal(t, "https://shop.example.com", sites[1].URL)
	assert.Equal(t, "example.com", sites[1].RootDomain)
}

func TestCheck_NetworkAdmin(t *testing.T) {
	s, db := newTestServer(t, "", "")
	rec := do(t, s.Handler(), http.MethodPost, "/api/check", http.Header{NetworkAdminHeader: {"true"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Authorized bool                `json:"authorized"`
		Outcomes   []multisite.Outcome `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Authorized)
	require.Len(t, body.Outcomes, 1)
	assert.Equal(t, multisite.StatusUpdateAvailable, body.Outcomes[0].Status)
	assert.EqualValues(t, 2, body.Outcomes[0].LicenseSite)

	cache, err := db.LoadUpdateCache(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, cache.HasPackage("widget-pro/widget-pro.php"))

	rec = do(t, s.Handler(), http.MethodGet, "/api/updates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"new_version":"2.0"`)
}

func TestCheck_RefererFallback(t *testing.T) {
	s, _ := newTestServer(t, "", "")
	rec := do(t, s.Handler(), http.MethodPost, "/api/check", http.Header{
		"Referer": {"https://network.example.com/wp-admin/network/plugins.php"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheck_Forbidden(t *testing.T) {
	s, db := newTestServer(t, "", "")

	for _, header := range []http.Header{
		nil,
		{"Referer": {"https://network.example.com/wp-admin/plugins.php"}},
		{NetworkAdminHeader: {"false"}, "Referer": {"https://network.example.com/wp-admin/network/plugins.php"}},
	} {
		rec := do(t, s.Handler(), http.MethodPost, "/api/check", header)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	}

	cache, err := db.LoadUpdateCache(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, cache.Response)
}

func TestInfo(t *testing.T) {
	s, _ := newTestServer(t, "", "")

	rec := do(t, s.Handler(), http.MethodGet, "/api/info?extension=widget-pro/widget-pro.php", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var info update.Information
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "6.5", info.Tested)

	rec = do(t, s.Handler(), http.MethodGet, "/api/info", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBasicAuth(t *testing.T) {
	s, _ := newTestServer(t, "admin", "secret")

	rec := do(t, s.Handler(), http.MethodGet, "/api/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.SetBasicAuth("admin", "secret")
	ok := httptest.NewRecorder()
	s.Handler().ServeHTTP(ok, req)
	require.Equal(t, http.StatusOK, ok.Code)

	var stats storage.Stats
	require.NoError(t, json.Unmarshal(ok.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Sites)
}
