// Package cmd wires the unibundle CLI.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/unibundle/unibundle/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "unibundle",
	Short: "Merge two single-architecture macOS app bundles into a universal bundle",
	Long: `Unibundle takes an x64 build and an arm64 build of the same macOS
application and produces one universal bundle: executables are combined
with lipo, the application code of both architectures is kept side by
side under architecture-tagged names, and a generated launcher picks the
right one at startup.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/unibundle/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Defaults first so they apply even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("UNIBUNDLE")
	// UNIBUNDLE_MERGE_TEMP_ROOT maps to merge.temp_root
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
