package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "Print the persisted update cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		cache, err := db.LoadUpdateCache(cmd.Context(), networkID())
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cache)
		}

		if len(cache.Response) == 0 {
			fmt.Println("The update cache is empty. Run 'msupdater check' first.")
			return nil
		}

		exts := make([]string, 0, len(cache.Response))
		for ext := range cache.Response {
			exts = append(exts, ext)
		}
		sort.Strings(exts)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "PLUGIN\tINSTALLED\tNEW VERSION\tPACKAGE\tLICENSE SITE")
		for _, ext := range exts {
			r := cache.Response[ext]
			if r == nil {
				continue
			}
			pkg := "no"
			if r.HasPackage() {
				pkg = "yes"
			}
			installed := cache.Checked[ext]
			if installed == "" {
				installed = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", ext, installed, r.NewVersion, pkg, r.SiteID)
		}
		w.Flush()

		if !cache.LastChecked.IsZero() {
			fmt.Printf("\nLast checked: %s\n", cache.LastChecked.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updatesCmd)
	updatesCmd.Flags().Bool("json", false, "Print the raw cache as JSON")
}
