package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unibundle/unibundle/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("unibundle " + version.GetFullVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
