package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/sw33tLie/msupdater/pkg/extension"
	"github.com/sw33tLie/msupdater/pkg/gate"
	"github.com/sw33tLie/msupdater/pkg/license"
	"github.com/sw33tLie/msupdater/pkg/multisite"
	"github.com/sw33tLie/msupdater/pkg/network"
	"github.com/sw33tLie/msupdater/pkg/storage"
	"github.com/sw33tLie/msupdater/pkg/update"
)

func main() {
	// Usage: go run *.go -db msupdater.sqlite -plugins /var/www/wp-content/plugins -slug my-plugin -key ABC123

	dbFlag := flag.String("db", "", "Path to a database loaded with 'msupdater db import'")
	pluginsFlag := flag.String("plugins", "", "Plugins directory")
	slugFlag := flag.String("slug", "", "Plugin slug to license with -key")
	keyFlag := flag.String("key", "", "License key")

	// Parse the command-line flags
	flag.Parse()

	if *dbFlag == "" || *pluginsFlag == "" {
		fmt.Println("Both -db and -plugins are required.")
		return
	}

	db, err := storage.Open(*dbFlag)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer db.Close()

	// Licenses come from the database, except for -slug which uses -key on every site.
	lookups := license.NewRegistry()
	lookups.Fallback = db
	if *slugFlag != "" {
		lookups.Register(*slugFlag, license.LookupFunc(func(ctx context.Context, c license.Candidate, site network.SiteID) license.Candidate {
			c.License = *keyFlag
			return c
		}))
	}

	client, err := update.NewClient(update.Config{Timeout: 15 * time.Second, InsecureSkipVerify: true})
	if err != nil {
		fmt.Println(err)
		return
	}

	checker, err := multisite.New(multisite.Config{
		Store:     db,
		NetworkID: 1,
		Inspector: extension.NewInspector(afero.NewOsFs(), *pluginsFlag),
		Lookups:   lookups,
		Client:    client,
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	report, err := checker.Check(context.Background(), nil, gate.Admin(true), update.NewCache())
	if err != nil {
		fmt.Println(err)
		return
	}

	for _, o := range report.Outcomes {
		fmt.Println(o.ExtensionID, o.Status)
		if o.Status == multisite.StatusUpdateAvailable {
			fmt.Println("  ", o.Result.NewVersion, o.Result.Package)
		}
	}
}
