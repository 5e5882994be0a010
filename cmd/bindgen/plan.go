package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"go.eggybyte.com/bindgen/internal/generator"
	"go.eggybyte.com/bindgen/internal/ui"
)

// planCmd represents the plan command.
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show every planned generator invocation",
	Long: `Enumerate every pass and print source -> destination for each protocol
document without running the generator. With --verbose the full
generator argument list is printed as well.

Layout errors and destination collisions are reported exactly as
'bindgen generate' would report them.`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

var planFlags passFlags

func init() {
	rootCmd.AddCommand(planCmd)
	bindPassFlags(planCmd, &planFlags)
}

func runPlan(cmd *cobra.Command, args []string) error {
	s, err := newSession(&planFlags)
	if err != nil {
		return err
	}

	jobs, err := s.orchestrator(generator.DryRun{Command: s.command}).Plan(s.passes)
	if err != nil {
		return err
	}

	wd, _ := os.Getwd()
	pass := ""
	for i, job := range jobs {
		if job.Pass != pass {
			pass = job.Pass
			ui.Info("Pass %s", pass)
		}
		ui.Step(i+1, len(jobs), "%s -> %s", display(wd, job.Source), display(wd, job.Destination))
		ui.Debug("%s", strings.Join(generator.Args(s.command, job), " "))
	}
	ui.Success("%d protocol document(s) in %d pass(es)", len(jobs), len(s.passes))
	return nil
}
