package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sw33tLie/msupdater/pkg/network"
	"github.com/sw33tLie/msupdater/pkg/update"
)

// LoadUpdateCache returns the network's persisted update cache, or an empty
// one when none was saved yet.
func (d *DB) LoadUpdateCache(ctx context.Context, networkID network.NetworkID) (*update.Cache, error) {
	var payload string
	err := d.sql.QueryRowContext(ctx, "SELECT payload FROM update_cache WHERE network_id = ?", int64(networkID)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return update.NewCache(), nil
	}
	if err != nil {
		return nil, err
	}

	cache := update.NewCache()
	if err := json.Unmarshal([]byte(payload), cache); err != nil {
		return nil, fmt.Errorf("decoding update cache of network %d: %w", networkID, err)
	}
	return cache, nil
}

// SaveUpdateCache replaces the network's persisted update cache.
func (d *DB) SaveUpdateCache(ctx context.Context, networkID network.NetworkID, cache *update.Cache) error {
	payload, err := json.Marshal(cache)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx, `INSERT INTO update_cache(network_id, payload, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(network_id) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`, int64(networkID), string(payload))
	return err
}
