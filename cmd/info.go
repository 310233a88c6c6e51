package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <plugin>",
	Short: "Show a licensed plugin's details as reported by its licensing server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		checker, err := newChecker(ctx, db)
		if err != nil {
			return err
		}
		cache, err := db.LoadUpdateCache(ctx, networkID())
		if err != nil {
			return err
		}

		info, err := checker.Information(ctx, args[0], cache)
		if err != nil {
			return err
		}

		fmt.Printf("%s %s\n", info.Name, info.NewVersion)
		for _, kv := range [][2]string{
			{"Author", info.Author},
			{"Homepage", info.Homepage},
			{"Requires", info.Requires},
			{"Tested up to", info.Tested},
			{"Last updated", info.LastUpdated},
			{"Package", info.Package},
			{"License site", info.SiteID.String()},
		} {
			if kv[1] != "" {
				fmt.Printf("  %-13s %s\n", kv[0]+":", kv[1])
			}
		}

		sections, _ := cmd.Flags().GetStringSlice("section")
		if len(sections) == 0 {
			sections = info.SectionNames()
		}
		for _, name := range sections {
			text := info.PlainSection(name)
			if text == "" {
				continue
			}
			fmt.Printf("\n== %s ==\n%s\n", strings.ToUpper(name), text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().StringSlice("section", nil, "Sections to print (default: all)")
}
