// Package main provides the bindgen CLI entry point.
//
// Overview:
//   - Responsibility: CLI command parsing and execution
//   - Key Types: Cobra command structure
//   - Concurrency Model: Single-threaded CLI execution, cancelled by SIGINT/SIGTERM
//   - Error Semantics: Errors are printed through ui and exit with status 1
//   - Performance Notes: Fast startup, minimal initialization
//
// Usage:
//
//	bindgen [command] [flags]
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go.eggybyte.com/bindgen/internal/ui"
)

var (
	verbose        bool
	nonInteractive bool
	jsonOutput     bool
	configPath     string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bindgen",
	Short: "Generate protocol bindings across a tree of protocol definitions",
	Long: `bindgen regenerates per-protocol binding modules from a tree of protocol
definition documents by running an external generator once per document.

A source tree shaped like

  <root>/<tier>/<family>/<protocol>.xml

is generated into

  <dest>/<Tier>/<Family>/<Protocol>

Passes, the generator command and the failure policy are read from
bindgen.yaml (or bindgen.toml) unless given as flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetVerbose(verbose)
		ui.SetNonInteractive(nonInteractive)
		ui.SetJSONOutput(jsonOutput)
	},
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.Error("Command failed: %v", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Manifest path (default: bindgen.yaml, bindgen.yml or bindgen.toml)")
}

func main() {
	os.Exit(Execute())
}
