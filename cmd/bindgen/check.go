package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.eggybyte.com/bindgen/internal/config"
	"go.eggybyte.com/bindgen/internal/generator"
	"go.eggybyte.com/bindgen/internal/toolrunner"
	"go.eggybyte.com/bindgen/internal/ui"
)

// checkCmd represents the check command.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the manifest, the generator and the source trees",
	Long: `Check the manifest for problems before generating.

This command verifies:
- Manifest syntax and values
- The generator executable can be found
- Every source root and single-file source exists
- Every protocol document fits the tier/family/protocol shape
- No two documents resolve to the same destination

Example:
  bindgen check
  bindgen check -c bindgen.toml`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ui.Info("Checking manifest...")

	path := configPath
	if path == "" {
		found, err := config.Find(".")
		if err != nil {
			return err
		}
		path = found
	}

	m, diags := config.Load(path)
	if m != nil {
		checkSources(m, diags)
	}
	printDiagnostics(diags, true)

	errs := len(diags.Errors())
	if errs > 0 {
		return fmt.Errorf("manifest check failed with %d error(s)", errs)
	}

	// Planning catches layout problems and collisions.
	s, err := manifestSession(m, &passFlags{})
	if err != nil {
		return err
	}
	jobs, err := s.orchestrator(generator.DryRun{Command: s.command}).Plan(s.passes)
	if err != nil {
		return err
	}

	if diags.HasWarnings() {
		ui.Warning("Check completed with warnings; %d protocol document(s) planned", len(jobs))
	} else {
		ui.Success("Check passed: %d protocol document(s) in %d pass(es)", len(jobs), len(s.passes))
	}
	return nil
}

// checkSources adds diagnostics for a missing generator and missing source paths.
func checkSources(m *config.Manifest, diags *config.Diagnostics) {
	if command, err := m.Command(); err == nil {
		if resolved, err := toolrunner.CheckToolAvailability(command[0]); err != nil {
			diags.AddError(fmt.Sprintf("Generator %s not found", command[0]), "generator", "Install the generator or put it on PATH")
		} else {
			ui.Debug("Generator resolved to %s", resolved)
		}
	}

	for i, p := range m.BatchPasses() {
		at := fmt.Sprintf("passes[%d]", i)
		if p.Source != "" {
			if info, err := os.Stat(p.Source); err != nil || !info.IsDir() {
				diags.AddError(fmt.Sprintf("Source root %s is not a directory", p.Source), at+".source", "Check the path, relative paths start at the manifest directory")
			}
		}
		if p.File != "" {
			if info, err := os.Stat(p.File); err != nil || info.IsDir() {
				diags.AddError(fmt.Sprintf("Source file %s does not exist", p.File), at+".file", "Check the path, relative paths start at the manifest directory")
			}
		}
	}
}
