package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/msupdater/internal/utils"
	"github.com/sw33tLie/msupdater/pkg/activation"
	"github.com/sw33tLie/msupdater/pkg/gate"
	"github.com/sw33tLie/msupdater/pkg/multisite"
)

// checkCmd implements: msupdater check
//
//	--referer string   Check as a request coming from this page, without the admin flag
//	--dry-run          Don't persist the update cache
//	--refresh          Re-ask for packages missing from cached entries afterwards
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Discover licenses across the network and check every licensed plugin for updates",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		refresh, _ := cmd.Flags().GetBool("refresh")

		req := gate.Admin(true)
		if cmd.Flags().Changed("referer") {
			referer, _ := cmd.Flags().GetString("referer")
			req = gate.Request{Referer: referer}
		}

		db, dbPath, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		lock, err := utils.NewDBLock(dbPath)
		if err != nil {
			return err
		}
		if err := lock.Lock(); err != nil {
			return err
		}
		defer lock.Unlock()

		ctx := cmd.Context()
		checker, err := newChecker(ctx, db)
		if err != nil {
			return err
		}

		cache, err := db.LoadUpdateCache(ctx, networkID())
		if err != nil {
			return err
		}

		report, err := checker.Check(ctx, activation.NewRun(), req, cache)
		if err != nil {
			return err
		}
		if !report.Authorized {
			return gate.ErrUnauthorized
		}

		outcomes := report.Outcomes
		if refresh {
			refreshed, err := checker.Refresh(ctx, cache)
			if err != nil {
				utils.Log.Warnf("Refresh failed: %v", err)
			}
			outcomes = append(outcomes, refreshed...)
		}

		printOutcomes(outcomes)
		utils.Log.Infof("Run %s: %d sites, %d updates, %d not licensed, %d errors",
			report.RunID, report.Sites, report.Count(multisite.StatusUpdateAvailable),
			report.Count(multisite.StatusNotLicensed), len(report.Errors))

		if dryRun {
			return nil
		}
		return db.SaveUpdateCache(ctx, networkID(), cache)
	},
}

func printOutcomes(outcomes []multisite.Outcome) {
	if len(outcomes) == 0 {
		fmt.Println("No licensed plugins are active on this network.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "PLUGIN\tSTATUS\tNEW VERSION\tLICENSE SITE\tDETAIL")
	for _, o := range outcomes {
		newVersion := "-"
		if o.Result != nil {
			newVersion = o.Result.NewVersion
		}
		licenseSite := "-"
		if o.LicenseSite != 0 {
			licenseSite = o.LicenseSite.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", o.ExtensionID, o.Status, newVersion, licenseSite, utils.Truncate(o.Error(), 80))
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().String("referer", "", "Check as a request coming from this page, without the admin flag")
	checkCmd.Flags().Bool("dry-run", false, "Don't persist the update cache")
	checkCmd.Flags().Bool("refresh", false, "Re-ask for packages missing from cached entries")
}
