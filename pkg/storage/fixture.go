package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFixture decodes a YAML network description.
func ParseFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	if f.Network.ID <= 0 {
		return errors.New("fixture: network.id must be positive")
	}
	if strings.TrimSpace(f.Network.Domain) == "" {
		return errors.New("fixture: network.domain is required")
	}
	seen := make(map[int64]bool, len(f.Sites))
	for _, s := range f.Sites {
		if s.ID <= 0 {
			return fmt.Errorf("fixture: site %q has no id", s.Domain)
		}
		if seen[s.ID] {
			return fmt.Errorf("fixture: duplicate site id %d", s.ID)
		}
		seen[s.ID] = true
		if s.Registered.IsZero() {
			return fmt.Errorf("fixture: site %d has no registration time", s.ID)
		}
	}
	if f.Network.Primary != 0 && !seen[f.Network.Primary] {
		return fmt.Errorf("fixture: primary site %d is not listed", f.Network.Primary)
	}
	return nil
}

// ImportFixture replaces everything stored for the fixture's network with
// the fixture's content.
func (d *DB) ImportFixture(ctx context.Context, r io.Reader) (summary ImportSummary, err error) {
	f, err := ParseFixture(r)
	if err != nil {
		return ImportSummary{}, err
	}
	netID := f.Network.ID
	summary.NetworkID = netID

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return ImportSummary{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, q := range []string{
		"DELETE FROM licenses WHERE site_id IN (SELECT blog_id FROM sites WHERE network_id = ?)",
		"DELETE FROM site_activations WHERE site_id IN (SELECT blog_id FROM sites WHERE network_id = ?)",
		"DELETE FROM sites WHERE network_id = ?",
		"DELETE FROM network_activations WHERE network_id = ?",
		"DELETE FROM networks WHERE id = ?",
	} {
		if _, err = tx.ExecContext(ctx, q, netID); err != nil {
			return ImportSummary{}, err
		}
	}

	_, err = tx.ExecContext(ctx, "INSERT INTO networks(id, domain, path, primary_site) VALUES(?,?,?,?)", netID, strings.ToLower(f.Network.Domain), pathOrRoot(f.Network.Path), f.Network.Primary)
	if err != nil {
		return ImportSummary{}, err
	}
	for i, ext := range f.NetworkPlugins {
		if _, err = tx.ExecContext(ctx, "INSERT INTO network_activations(network_id, extension_id, position) VALUES(?,?,?)", netID, ext, i); err != nil {
			return ImportSummary{}, fmt.Errorf("network plugin %s: %w", ext, err)
		}
		summary.Activations++
	}

	for _, s := range f.Sites {
		public := s.Public == nil || *s.Public
		_, err = tx.ExecContext(ctx, `INSERT INTO sites(blog_id, network_id, domain, path, registered, public, archived, mature, spam, deleted) VALUES(?,?,?,?,?,?,?,?,?,?)`,
			s.ID, netID, strings.ToLower(s.Domain), pathOrRoot(s.Path), s.Registered.UTC().Format(registeredLayout),
			boolToInt(public), boolToInt(s.Archived), boolToInt(s.Mature), boolToInt(s.Spam), boolToInt(s.Deleted))
		if err != nil {
			return ImportSummary{}, fmt.Errorf("site %d: %w", s.ID, err)
		}
		summary.Sites++

		for i, ext := range s.Plugins {
			if _, err = tx.ExecContext(ctx, "INSERT INTO site_activations(site_id, extension_id, position) VALUES(?,?,?)", s.ID, ext, i); err != nil {
				return ImportSummary{}, fmt.Errorf("site %d plugin %s: %w", s.ID, ext, err)
			}
			summary.Activations++
		}
		for _, l := range s.Licenses {
			_, err = tx.ExecContext(ctx, `INSERT INTO licenses(site_id, slug, license_key, item_name, version, api_url, author) VALUES(?,?,?,?,?,?,?)`,
				s.ID, l.Slug, nullIfEmpty(l.Key), nullIfEmpty(l.ItemName), nullIfEmpty(l.Version), nullIfEmpty(l.APIURL), nullIfEmpty(l.Author))
			if err != nil {
				return ImportSummary{}, fmt.Errorf("site %d license %s: %w", s.ID, l.Slug, err)
			}
			summary.Licenses++
		}
	}

	if err = tx.Commit(); err != nil {
		return ImportSummary{}, err
	}
	return summary, nil
}

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
