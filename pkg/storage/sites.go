package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sw33tLie/msupdater/pkg/network"
)

// Sites returns every site registered on the network, including those that
// aren't eligible for discovery. Filtering and ordering are left to
// network.Directory.
func (d *DB) Sites(ctx context.Context, networkID network.NetworkID) ([]network.Site, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT blog_id, network_id, domain, path, registered, public, archived, mature, spam, deleted FROM sites WHERE network_id = ? ORDER BY registered, blog_id`, int64(networkID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []network.Site
	for rows.Next() {
		var (
			s                                       network.Site
			registered                              string
			public, archived, mature, spam, deleted int
		)
		if err := rows.Scan(&s.ID, &s.NetworkID, &s.Domain, &s.Path, &registered, &public, &archived, &mature, &spam, &deleted); err != nil {
			return nil, err
		}
		s.Registered = parseRegistered(registered)
		s.Public = public == 1
		s.Archived = archived == 1
		s.Mature = mature == 1
		s.Spam = spam == 1
		s.Deleted = deleted == 1
		out = append(out, s)
	}
	return out, rows.Err()
}

// PrimarySite returns the administrative site of the network.
func (d *DB) PrimarySite(ctx context.Context, networkID network.NetworkID) (network.SiteID, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx, "SELECT primary_site FROM networks WHERE id = ?", int64(networkID)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownNetwork, networkID)
	}
	if err != nil {
		return 0, err
	}
	return network.SiteID(id), nil
}

// PrimaryDomain returns the domain of the network's administrative site.
func (d *DB) PrimaryDomain(ctx context.Context, networkID network.NetworkID) (string, error) {
	var domain string
	err := d.sql.QueryRowContext(ctx, "SELECT domain FROM networks WHERE id = ?", int64(networkID)).Scan(&domain)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %d", ErrUnknownNetwork, networkID)
	}
	return domain, err
}

func (d *DB) SiteActivations(ctx context.Context, siteID network.SiteID) ([]string, error) {
	return d.activations(ctx, "SELECT extension_id FROM site_activations WHERE site_id = ? ORDER BY position", int64(siteID))
}

func (d *DB) NetworkActivations(ctx context.Context, networkID network.NetworkID) ([]string, error) {
	return d.activations(ctx, "SELECT extension_id FROM network_activations WHERE network_id = ? ORDER BY position", int64(networkID))
}

func (d *DB) activations(ctx context.Context, query string, id int64) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var ext string
		if err := rows.Scan(&ext); err != nil {
			return nil, err
		}
		out = append(out, ext)
	}
	return out, rows.Err()
}
