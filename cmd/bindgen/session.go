package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"go.eggybyte.com/bindgen/internal/batch"
	"go.eggybyte.com/bindgen/internal/config"
	"go.eggybyte.com/bindgen/internal/generator"
	"go.eggybyte.com/bindgen/internal/layout"
	"go.eggybyte.com/bindgen/internal/logx"
	"go.eggybyte.com/bindgen/internal/scan"
	"go.eggybyte.com/bindgen/internal/ui"
)

// passFlags describe an ad-hoc pass given on the command line instead of a manifest.
type passFlags struct {
	generator  string
	source     string
	file       string
	dest       string
	tier       string
	tiers      string
	importName string
	mode       string
	timeout    time.Duration
	keepGoing  bool
}

func bindPassFlags(cmd *cobra.Command, f *passFlags) {
	fs := cmd.Flags()
	fs.StringVar(&f.generator, "generator", "", "Generator command, e.g. 'swift run WaylandScannerCLI'")
	fs.StringVar(&f.source, "source", "", "Protocol source root (ad-hoc pass)")
	fs.StringVar(&f.file, "file", "", "Single protocol document (ad-hoc pass)")
	fs.StringVar(&f.dest, "dest", "", "Destination root, or destination directory with --file")
	fs.StringVar(&f.tier, "tier", "", "Tier the --source directory stands for")
	fs.StringVar(&f.tiers, "tiers", "", "Comma-separated accepted tier directories, '*' accepts any (default: manifest tiers or "+strings.Join(layout.DefaultTiers, ",")+")")
	fs.StringVar(&f.importName, "import", "", "Module the generated code imports")
	fs.StringVar(&f.mode, "mode", "", "Generation mode: client or server")
	fs.DurationVar(&f.timeout, "timeout", 0, "Per-protocol generator timeout (0 waits indefinitely)")
	fs.BoolVar(&f.keepGoing, "keep-going", false, "Continue after a failed protocol and report every failure")
}

func (f *passFlags) adHoc() bool {
	return f.source != "" || f.file != ""
}

// tierLayout returns the layout named by --tiers, or fallback when the flag is unset.
func (f *passFlags) tierLayout(fallback *layout.Layout) *layout.Layout {
	switch v := strings.TrimSpace(f.tiers); v {
	case "":
		return fallback
	case "*":
		return &layout.Layout{}
	default:
		var tiers []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tiers = append(tiers, t)
			}
		}
		return &layout.Layout{Tiers: tiers}
	}
}

// session is everything a command needs to plan or run generation.
type session struct {
	manifest *config.Manifest
	command  []string
	passes   []batch.Pass
	layout   *layout.Layout
	scanner  *scan.Scanner
	mode     generator.Mode
	policy   batch.Policy
	timeout  time.Duration
	logger   logx.Logger
}

// newSession builds a session from the manifest or from ad-hoc flags.
// Flags given next to a manifest override its values.
func newSession(f *passFlags) (*session, error) {
	if f.adHoc() {
		return adHocSession(f)
	}

	m, err := loadManifest(config.WithGenerator(f.generator))
	if err != nil {
		return nil, err
	}
	return manifestSession(m, f)
}

// manifestSession applies the non-generator flags on top of m. A --generator
// flag must reach config.Load through config.WithGenerator.
func manifestSession(m *config.Manifest, f *passFlags) (*session, error) {
	if f.mode != "" {
		m.Mode = f.mode
	}

	s := &session{
		manifest: m,
		passes:   m.BatchPasses(),
		layout:   f.tierLayout(m.Layout()),
		scanner:  m.Scanner(),
		timeout:  m.TimeoutDuration(),
	}
	if f.timeout > 0 {
		s.timeout = f.timeout
	}
	policy := m.Policy
	if f.keepGoing {
		policy = string(batch.PolicyContinue)
	}
	command, err := m.Command()
	if err != nil {
		return nil, err
	}
	if err := s.finish(command, m.Mode, policy, m.Log); err != nil {
		return nil, err
	}
	return s, nil
}

func adHocSession(f *passFlags) (*session, error) {
	if f.generator == "" {
		f.generator = os.Getenv(config.EnvPrefix + "GENERATOR")
	}
	if f.generator == "" {
		return nil, fmt.Errorf("--generator is required without a manifest")
	}
	if f.dest == "" {
		return nil, fmt.Errorf("--dest is required with --source or --file")
	}

	s := &session{
		passes: []batch.Pass{{
			Name:        "cli",
			Source:      f.source,
			File:        f.file,
			Destination: f.dest,
			Tier:        f.tier,
			Import:      f.importName,
		}},
		layout:  f.tierLayout(layout.Default()),
		scanner: scan.New(),
		timeout: f.timeout,
	}
	policy := string(batch.PolicyAbort)
	if f.keepGoing {
		policy = string(batch.PolicyContinue)
	}
	command, err := generator.ParseCommand(f.generator)
	if err != nil {
		return nil, err
	}
	if err := s.finish(command, f.mode, policy, config.LogConfig{}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *session) finish(command []string, mode, policy string, logCfg config.LogConfig) error {
	var err error
	s.command = command
	if s.mode, err = generator.ParseMode(mode); err != nil {
		return err
	}
	if s.policy, err = batch.ParsePolicy(policy); err != nil {
		return err
	}
	s.logger, err = newLogger(logCfg)
	return err
}

// orchestrator wires the session into a batch orchestrator driving gen.
func (s *session) orchestrator(gen generator.Generator, opts ...batch.Option) *batch.Orchestrator {
	base := []batch.Option{
		batch.WithLayout(s.layout),
		batch.WithScanner(s.scanner),
		batch.WithLogger(s.logger),
		batch.WithMode(s.mode),
		batch.WithPolicy(s.policy),
	}
	return batch.New(gen, append(base, opts...)...)
}

func newLogger(cfg config.LogConfig) (logx.Logger, error) {
	format, err := logx.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	level, _ := logx.ParseLevel(cfg.Level)
	if verbose {
		level, _ = logx.ParseLevel("debug")
	}
	return logx.New(
		logx.WithFormat(format),
		logx.WithLevel(level),
		logx.WithColor(!color.NoColor),
		logx.WithWriter(os.Stderr),
	), nil
}

// loadManifest loads --config or the first default manifest in the working directory.
func loadManifest(opts ...config.LoadOption) (*config.Manifest, error) {
	path := configPath
	if path == "" {
		found, err := config.Find(".")
		if err != nil {
			return nil, fmt.Errorf("%w; pass --source/--file or run 'bindgen init'", err)
		}
		path = found
	}

	m, diags := config.Load(path, opts...)
	printDiagnostics(diags, false)
	if m == nil || diags.HasErrors() {
		return nil, fmt.Errorf("invalid manifest %s: %d error(s)", path, len(diags.Errors()))
	}
	ui.Debug("Loaded manifest %s", m.Path())
	return m, nil
}

// printDiagnostics shows errors and warnings, and info entries when all is set.
func printDiagnostics(diags *config.Diagnostics, all bool) {
	for _, d := range diags.Items() {
		switch d.Severity {
		case config.SeverityError:
			ui.Error("%s", d)
		case config.SeverityWarning:
			ui.Warning("%s", d)
		default:
			if all {
				ui.Info("%s", d)
			} else {
				ui.Debug("%s", d)
			}
		}
	}
}
