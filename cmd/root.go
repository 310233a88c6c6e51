package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/msupdater/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "msupdater",
	Short: "Network-wide license discovery and update checks for multisite installs.",
	Long: `msupdater finds a usable license for every licensed plugin active anywhere on a
multisite network and asks each plugin's licensing server whether a newer version exists.

Any one site's license unlocks updates for the whole network.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.msupdater.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy for update requests (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default is ~/.config/msupdater/msupdater.sqlite)")
	rootCmd.PersistentFlags().Int64P("network", "n", 1, "Network id")
	rootCmd.PersistentFlags().String("plugins-dir", "", "Plugins directory of the install")

	viper.BindPFlag("updater.proxy", rootCmd.PersistentFlags().Lookup("proxy"))
	viper.BindPFlag("dbpath", rootCmd.PersistentFlags().Lookup("dbpath"))
	viper.BindPFlag("network_id", rootCmd.PersistentFlags().Lookup("network"))
	viper.BindPFlag("plugins_dir", rootCmd.PersistentFlags().Lookup("plugins-dir"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".msupdater")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("MSUPDATER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("network_id", 1)
	viper.SetDefault("plugins_dir", "")
	viper.SetDefault("host.version", "6.4")
	viper.SetDefault("updater.api_url", "")
	viper.SetDefault("updater.timeout", 15*time.Second)
	viper.SetDefault("updater.retries", 0)
	viper.SetDefault("updater.insecure_skip_verify", true)
	viper.SetDefault("gate.strict_referer_domain", false)
	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.msupdater.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
