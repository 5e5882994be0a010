package main

import (
	"os"

	"github.com/spf13/cobra"

	"go.eggybyte.com/bindgen/internal/config"
	"go.eggybyte.com/bindgen/internal/ui"
)

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter manifest",
	Long: `Write a starter bindgen manifest in the current directory.

Example:
  bindgen init
  bindgen init --format toml
  bindgen init -c protocols/bindgen.yaml --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	initFormat string
	initForce  bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initFormat, "format", "yaml", "Manifest format: yaml or toml")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing manifest")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = "bindgen." + initFormat
	}
	format, err := config.FormatOf(path)
	if err != nil {
		return err
	}

	overwrite := initForce
	if _, err := os.Stat(path); err == nil && !overwrite {
		if !ui.Confirm("%s already exists. Overwrite?", path) {
			ui.Warning("Left %s unchanged", path)
			return nil
		}
		overwrite = true
	}

	if err := config.WriteTemplate(path, format, overwrite); err != nil {
		return err
	}
	ui.Success("Wrote %s", path)
	ui.Info("Edit the generator command and passes, then run 'bindgen check'")
	return nil
}
