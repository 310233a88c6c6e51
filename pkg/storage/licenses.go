package storage

import (
	"context"
	"database/sql"

	"github.com/sw33tLie/msupdater/pkg/license"
	"github.com/sw33tLie/msupdater/pkg/network"
)

// Lookup completes defaults with the license stored for the site and the
// candidate's slug. Only non-empty stored fields override the defaults, so
// a site without a row gets its defaults back unchanged.
func (d *DB) Lookup(ctx context.Context, defaults license.Candidate, siteID network.SiteID) license.Candidate {
	var key, itemName, version, apiURL, author sql.NullString
	err := d.sql.QueryRowContext(ctx, `SELECT license_key, item_name, version, api_url, author FROM licenses WHERE site_id = ? AND slug = ?`, int64(siteID), defaults.Slug).
		Scan(&key, &itemName, &version, &apiURL, &author)
	if err != nil {
		return defaults
	}

	out := defaults
	overlay(&out.License, key)
	overlay(&out.ItemName, itemName)
	overlay(&out.Version, version)
	overlay(&out.APIURL, apiURL)
	overlay(&out.Author, author)
	return out
}

func overlay(dst *string, v sql.NullString) {
	if v.Valid && v.String != "" {
		*dst = v.String
	}
}

// License is a stored per-site license row.
type License struct {
	SiteID   network.SiteID `yaml:"-"`
	Slug     string         `yaml:"slug"`
	Key      string         `yaml:"key"`
	ItemName string         `yaml:"item_name"`
	Version  string         `yaml:"version"`
	APIURL   string         `yaml:"api_url"`
	Author   string         `yaml:"author"`
}

// PutLicense inserts or replaces a site's license for one slug.
func (d *DB) PutLicense(ctx context.Context, l License) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO licenses(site_id, slug, license_key, item_name, version, api_url, author) VALUES(?,?,?,?,?,?,?)
ON CONFLICT(site_id, slug) DO UPDATE SET license_key = excluded.license_key, item_name = excluded.item_name, version = excluded.version, api_url = excluded.api_url, author = excluded.author`,
		int64(l.SiteID), l.Slug, nullIfEmpty(l.Key), nullIfEmpty(l.ItemName), nullIfEmpty(l.Version), nullIfEmpty(l.APIURL), nullIfEmpty(l.Author))
	return err
}
