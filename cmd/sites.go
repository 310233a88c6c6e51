package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/msupdater/pkg/network"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the network's sites taking part in license discovery, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		dir := network.NewDirectory(db)
		sites, err := dir.ListSites(ctx, networkID())
		if err != nil {
			return err
		}
		if len(sites) == 0 {
			fmt.Println("No eligible sites on this network.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tROOT DOMAIN\tREGISTERED\tPLUGINS")
		for _, s := range sites {
			id := s.ID.String()
			if primary, _ := dir.IsPrimary(ctx, s); primary {
				id += "*"
			}
			plugins := "?"
			if exts, err := dir.Activations(ctx, s); err == nil {
				plugins = fmt.Sprint(len(exts))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", id, s.URL(), s.RootDomain(), s.Registered.Format("2006-01-02 15:04"), plugins)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}
