package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/msupdater/internal/utils"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the msupdater database",
}

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <fixture.yaml>",
	Short: "Replace a network's sites, activations and licenses with a YAML description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

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

		summary, err := db.ImportFixture(cmd.Context(), f)
		if err != nil {
			return err
		}
		utils.Log.Infof("Imported network %d: %d sites, %d activations, %d licenses", summary.NetworkID, summary.Sites, summary.Activations, summary.Licenses)
		return nil
	},
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := utils.GetAbsDBPath(viper.GetString("dbpath"))
		if err != nil {
			return err
		}

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		// Print schema first
		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, dbPath, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, dbPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the networks stored in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return err
		}

		if stats.Sites == 0 {
			fmt.Println("No data in the database. Load a network with 'msupdater db import'.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintf(w, "NETWORKS\t%d\t\n", stats.Networks)
		fmt.Fprintf(w, "SITES\t%d\t\n", stats.Sites)
		fmt.Fprintf(w, "ELIGIBLE SITES\t%d\t\n", stats.EligibleSites)
		fmt.Fprintf(w, "SITE ACTIVATIONS\t%d\t\n", stats.SiteActivations)
		fmt.Fprintf(w, "NETWORK ACTIVATIONS\t%d\t\n", stats.NetworkActivations)
		fmt.Fprintf(w, "LICENSES\t%d\t\n", stats.Licenses)
		fmt.Fprintf(w, "CACHED NETWORKS\t%d\t\n", stats.CachedNetworks)
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(importCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(statsCmd)
}
