package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/msupdater/internal/server"
	"github.com/sw33tLie/msupdater/internal/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP trigger and read-only API",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, dbPath, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		checker, err := newChecker(cmd.Context(), db)
		if err != nil {
			return err
		}
		lock, err := utils.NewDBLock(dbPath)
		if err != nil {
			return err
		}

		srv := server.New(db, checker, networkID(), viper.GetString("server.username"), viper.GetString("server.password"))
		srv.Lock = lock
		if srv.Username == "" && srv.Password == "" {
			utils.Log.Warn("No server credentials configured, the API is open to anyone who can reach it")
		}
		return srv.Start(viper.GetString("server.listen"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}
