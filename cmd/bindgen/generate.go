package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"go.eggybyte.com/bindgen/internal/batch"
	"go.eggybyte.com/bindgen/internal/errors"
	"go.eggybyte.com/bindgen/internal/generator"
	"go.eggybyte.com/bindgen/internal/toolrunner"
	"go.eggybyte.com/bindgen/internal/ui"
)

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the generator for every protocol document",
	Long: `Run the generator once per protocol document of every pass.

The whole batch is planned first: a file outside the expected
tier/family/protocol shape, or two documents resolving to the same
destination, stops the run before the generator is invoked.

Example:
  bindgen generate
  bindgen generate --keep-going
  bindgen generate --generator wayland-swift --source protocols --dest Sources/Protocols --import SwiftWayland
  bindgen generate --generator wayland-swift --file wayland.xml --dest Sources/SwiftWayland --import SwiftWaylandCommon`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var (
	generateFlags  passFlags
	generateDryRun bool
)

func init() {
	rootCmd.AddCommand(generateCmd)

	bindPassFlags(generateCmd, &generateFlags)
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "Print generator invocations without running them")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	s, err := newSession(&generateFlags)
	if err != nil {
		return err
	}

	var gen generator.Generator
	if generateDryRun {
		gen = generator.DryRun{
			Command: s.command,
			Logger:  s.logger,
			Observe: func(_ generator.Job, args []string) {
				ui.Info("%s", strings.Join(args, " "))
			},
		}
	} else {
		runner := toolrunner.NewRunner("")
		runner.SetVerbose(verbose)
		if verbose {
			runner.SetMirror(os.Stderr)
		}
		gen, err = generator.NewExec(s.command, runner,
			generator.WithTimeout(s.timeout),
			generator.WithLogger(s.logger),
		)
		if err != nil {
			return err
		}
	}

	wd, _ := os.Getwd()
	orch := s.orchestrator(gen, batch.WithObserver(func(step, total int, job generator.Job) {
		ui.Step(step, total, "%s", display(wd, job.Destination))
	}))

	ui.Info("Generating %d pass(es) with %s", len(s.passes), strings.Join(s.command, " "))
	report, err := orch.Run(cmd.Context(), s.passes)
	if err != nil {
		for _, f := range report.Failed() {
			ui.Error("%s -> %s (exit code %d)", display(wd, f.Job.Source), display(wd, f.Job.Destination), f.ExitCode)
			if stderr, ok := errors.Detail(f.Err, "stderr"); ok && stderr != "" {
				ui.Debug("%s", stderr)
			}
		}
		if skipped := report.Skipped(); skipped > 0 {
			ui.Warning("%d protocol(s) not generated", skipped)
		}
		return err
	}

	verb := "Generated"
	if generateDryRun {
		verb = "Planned"
	}
	ui.Success("%s %d protocol module(s) in %s (run %s)", verb, report.Succeeded(), report.Duration().Round(time.Millisecond), report.RunID)
	return nil
}

// display shortens path relative to base when it lies below it.
func display(base, path string) string {
	if base == "" {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
