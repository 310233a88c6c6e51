package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/sw33tLie/msupdater/internal/utils"
	"github.com/sw33tLie/msupdater/pkg/extension"
	"github.com/sw33tLie/msupdater/pkg/gate"
	"github.com/sw33tLie/msupdater/pkg/license"
	"github.com/sw33tLie/msupdater/pkg/multisite"
	"github.com/sw33tLie/msupdater/pkg/network"
	"github.com/sw33tLie/msupdater/pkg/storage"
	"github.com/sw33tLie/msupdater/pkg/update"
)

func networkID() network.NetworkID {
	return network.NetworkID(viper.GetInt64("network_id"))
}

// openDB opens the configured database and returns it with its resolved path.
func openDB() (*storage.DB, string, error) {
	path, err := utils.GetAbsDBPath(viper.GetString("dbpath"))
	if err != nil {
		return nil, "", err
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", path, err)
	}
	return db, path, nil
}

// newChecker wires a checker on top of db: the store serves both the site
// directory and the license lookups.
func newChecker(ctx context.Context, db *storage.DB) (*multisite.Checker, error) {
	pluginsDir := viper.GetString("plugins_dir")
	if pluginsDir == "" {
		return nil, errors.New("plugins_dir is not set (use --plugins-dir or the config file)")
	}

	insecure := viper.GetBool("updater.insecure_skip_verify")
	client, err := update.NewClient(update.Config{
		HostVersion:        viper.GetString("host.version"),
		Timeout:            viper.GetDuration("updater.timeout"),
		Retries:            viper.GetInt("updater.retries"),
		InsecureSkipVerify: insecure,
		Proxy:              viper.GetString("updater.proxy"),
		Log:                utils.Log,
	})
	if err != nil {
		return nil, err
	}

	primaryDomain, err := db.PrimaryDomain(ctx, networkID())
	if err != nil {
		utils.Log.Warnf("Could not resolve the primary domain of network %d: %v", networkID(), err)
	}

	lookups := license.NewRegistry()
	lookups.Fallback = db

	return multisite.New(multisite.Config{
		Store:         db,
		NetworkID:     networkID(),
		Inspector:     extension.NewInspector(afero.NewOsFs(), pluginsDir),
		Lookups:       lookups,
		Client:        client,
		DefaultAPIURL: viper.GetString("updater.api_url"),
		Gate: gate.Gate{
			StrictRefererDomain: viper.GetBool("gate.strict_referer_domain"),
			PrimaryDomain:       primaryDomain,
		},
		InsecureSkipVerify: insecure,
		Log:                utils.Log,
	})
}
