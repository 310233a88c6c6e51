// Package storage is a SQLite-backed host store: sites, activations,
// per-site licenses and the persisted update cache of one or more networks.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrUnknownNetwork is returned when a network has no row in the store.
var ErrUnknownNetwork = errors.New("unknown network")

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS networks (
  id            INTEGER PRIMARY KEY,
  domain        TEXT NOT NULL,
  path          TEXT NOT NULL DEFAULT '/',
  primary_site  INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS sites (
  blog_id     INTEGER PRIMARY KEY,
  network_id  INTEGER NOT NULL,
  domain      TEXT NOT NULL,
  path        TEXT NOT NULL DEFAULT '/',
  registered  TEXT NOT NULL,
  public      INTEGER NOT NULL DEFAULT 1 CHECK (public IN (0,1)),
  archived    INTEGER NOT NULL DEFAULT 0 CHECK (archived IN (0,1)),
  mature      INTEGER NOT NULL DEFAULT 0 CHECK (mature IN (0,1)),
  spam        INTEGER NOT NULL DEFAULT 0 CHECK (spam IN (0,1)),
  deleted     INTEGER NOT NULL DEFAULT 0 CHECK (deleted IN (0,1))
);
CREATE INDEX IF NOT EXISTS idx_sites_network ON sites(network_id, registered);
CREATE TABLE IF NOT EXISTS site_activations (
  site_id       INTEGER NOT NULL,
  extension_id  TEXT NOT NULL,
  position      INTEGER NOT NULL,
  PRIMARY KEY (site_id, extension_id)
);
CREATE TABLE IF NOT EXISTS network_activations (
  network_id    INTEGER NOT NULL,
  extension_id  TEXT NOT NULL,
  position      INTEGER NOT NULL,
  PRIMARY KEY (network_id, extension_id)
);
CREATE TABLE IF NOT EXISTS licenses (
  site_id      INTEGER NOT NULL,
  slug         TEXT NOT NULL,
  license_key  TEXT,
  item_name    TEXT,
  version      TEXT,
  api_url      TEXT,
  author       TEXT,
  PRIMARY KEY (site_id, slug)
);
CREATE TABLE IF NOT EXISTS update_cache (
  network_id  INTEGER PRIMARY KEY,
  payload     TEXT NOT NULL,
  updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Stats summarises the content of the store.
type Stats struct {
	Networks           int
	Sites              int
	EligibleSites      int
	SiteActivations    int
	NetworkActivations int
	Licenses           int
	CachedNetworks     int
}

func (d *DB) GetStats(ctx context.Context) (Stats, error) {
	var s Stats
	counts := []struct {
		dst   *int
		query string
	}{
		{&s.Networks, "SELECT COUNT(*) FROM networks"},
		{&s.Sites, "SELECT COUNT(*) FROM sites"},
		{&s.EligibleSites, "SELECT COUNT(*) FROM sites WHERE public = 1 AND archived = 0 AND mature = 0 AND spam = 0 AND deleted = 0"},
		{&s.SiteActivations, "SELECT COUNT(*) FROM site_activations"},
		{&s.NetworkActivations, "SELECT COUNT(*) FROM network_activations"},
		{&s.Licenses, "SELECT COUNT(*) FROM licenses WHERE license_key IS NOT NULL AND license_key != ''"},
		{&s.CachedNetworks, "SELECT COUNT(*) FROM update_cache"},
	}
	for _, c := range counts {
		if err := d.sql.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("%s: %w", c.query, err)
		}
	}
	return s, nil
}
