package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.eggybyte.com/bindgen/internal/version"
)

// versionCmd represents the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show bindgen version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	rootCmd.Version = version.String()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}
