// Package batch plans and runs generator invocations across source passes.
//
// Overview:
//   - Responsibility: Turn passes into jobs, reject destination collisions, run jobs in order
//   - Key Types: Orchestrator, Pass, Policy, Report
//   - Concurrency Model: Jobs run strictly sequentially on the calling goroutine
//   - Error Semantics: Enumeration, layout and collision errors abort before any generator runs;
//     job failures follow the configured Policy
//   - Performance Notes: The whole plan is held in memory before execution starts
//
// Usage:
//
//	orch := batch.New(gen, batch.WithLogger(logger), batch.WithPolicy(batch.PolicyContinue))
//	report, err := orch.Run(ctx, []batch.Pass{
//	    {Name: "core", File: "wayland.xml", Destination: "Sources/Core", Import: "SwiftWaylandCommon"},
//	    {Name: "protocols", Source: "protocols", Destination: "Sources/Protocols", Import: "SwiftWayland"},
//	})
package batch

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"go.eggybyte.com/bindgen/internal/errors"
	"go.eggybyte.com/bindgen/internal/generator"
	"go.eggybyte.com/bindgen/internal/layout"
	"go.eggybyte.com/bindgen/internal/logx"
	"go.eggybyte.com/bindgen/internal/scan"
)

// Policy decides what happens after a job fails.
type Policy string

// Failure policies.
const (
	// PolicyAbort stops at the first failed job.
	PolicyAbort Policy = "abort"
	// PolicyContinue runs every job and reports all failures together.
	PolicyContinue Policy = "continue"
)

// ParsePolicy validates a policy name. Empty selects PolicyAbort.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicyContinue:
		return PolicyContinue, nil
	}
	return "", errors.Newf(errors.CodeInvalidArgument, "unknown failure policy %q (want abort or continue)", raw)
}

// Pass is one source root or standalone file generated into one destination root.
type Pass struct {
	Name string
	// Source is a directory of tier/family/protocol documents.
	Source string
	// File is a standalone document generated straight into Destination.
	File        string
	Destination string
	// Tier marks Source as a tier directory holding family/protocol documents.
	Tier   string
	Import string
}

func (p Pass) label() string {
	if p.Name != "" {
		return p.Name
	}
	if p.File != "" {
		return p.File
	}
	return p.Source
}

func (p Pass) validate() error {
	switch {
	case p.Source == "" && p.File == "":
		return errors.Newf(errors.CodeInvalidArgument, "pass %s: one of source or file is required", p.label())
	case p.Source != "" && p.File != "":
		return errors.Newf(errors.CodeInvalidArgument, "pass %s: source and file are mutually exclusive", p.label())
	case p.Destination == "":
		return errors.Newf(errors.CodeInvalidArgument, "pass %s: destination is required", p.label())
	case p.File != "" && p.Tier != "":
		return errors.Newf(errors.CodeInvalidArgument, "pass %s: tier applies to source directories only", p.label())
	}
	return nil
}

// Orchestrator plans and executes generation passes.
type Orchestrator struct {
	gen      generator.Generator
	layout   *layout.Layout
	scanner  *scan.Scanner
	logger   logx.Logger
	mode     generator.Mode
	policy   Policy
	observer func(step, total int, job generator.Job)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLayout sets the source tree shape. Defaults to layout.Default().
func WithLayout(l *layout.Layout) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.layout = l
		}
	}
}

// WithScanner sets the file enumerator. Defaults to an unfiltered scanner.
func WithScanner(s *scan.Scanner) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.scanner = s
		}
	}
}

// WithLogger sets the run logger.
func WithLogger(l logx.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMode sets the generation mode of every job.
func WithMode(m generator.Mode) Option {
	return func(o *Orchestrator) {
		if m != "" {
			o.mode = m
		}
	}
}

// WithPolicy sets the failure policy.
func WithPolicy(p Policy) Option {
	return func(o *Orchestrator) {
		if p != "" {
			o.policy = p
		}
	}
}

// WithObserver registers fn to be called before each job starts.
func WithObserver(fn func(step, total int, job generator.Job)) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

// New creates an Orchestrator driving gen.
func New(gen generator.Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gen:     gen,
		layout:  layout.Default(),
		scanner: scan.New(),
		logger:  logx.Discard(),
		mode:    generator.ModeClient,
		policy:  PolicyAbort,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Plan enumerates and resolves every pass into jobs, in pass order.
//
// Returns:
//   - []generator.Job: One job per discovered source
//   - error: First enumeration, layout or translation error, or CodeCollision
//     when two sources resolve to one destination
func (o *Orchestrator) Plan(passes []Pass) ([]generator.Job, error) {
	var jobs []generator.Job
	owners := make(map[string]generator.Job)

	for _, pass := range passes {
		resolved, err := o.resolvePass(pass)
		if err != nil {
			return nil, err
		}
		if len(resolved) == 0 {
			o.logger.Warn("pass has no source files", "pass", pass.label(), "source", pass.Source)
		}
		for _, r := range resolved {
			job := generator.Job{
				Pass:        pass.label(),
				Source:      r.Source.Path,
				Destination: r.Destination,
				Mode:        o.mode,
				Import:      pass.Import,
			}
			if prior, ok := owners[job.Destination]; ok {
				return nil, errors.Build(errors.CodeCollision).
					WithOp("plan").
					WithMsgf("%s and %s both resolve to %s", prior.Source, job.Source, job.Destination).
					WithDetails("destination", job.Destination, "sources", []string{prior.Source, job.Source}).
					Err()
			}
			owners[job.Destination] = job
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

func (o *Orchestrator) resolvePass(pass Pass) ([]layout.Resolved, error) {
	if err := pass.validate(); err != nil {
		return nil, err
	}
	destRoot, err := filepath.Abs(pass.Destination)
	if err != nil {
		return nil, errors.Wrapf(errors.CodeInvalidArgument, "plan", err, "pass %s destination", pass.label())
	}

	if pass.File != "" {
		file, err := filepath.Abs(pass.File)
		if err != nil {
			return nil, errors.Wrapf(errors.CodeInvalidArgument, "plan", err, "pass %s file", pass.label())
		}
		r, err := layout.Single(file, destRoot)
		if err != nil {
			return nil, err
		}
		return []layout.Resolved{r}, nil
	}

	if pass.Tier != "" {
		if err := o.layout.ValidateTier(pass.Tier); err != nil {
			return nil, errors.Wrapf(errors.CodeLayout, "plan", err, "pass %s", pass.label())
		}
	}
	root, err := filepath.Abs(pass.Source)
	if err != nil {
		return nil, errors.Wrapf(errors.CodeEnumeration, "plan", err, "pass %s source", pass.label())
	}
	files, err := o.scanner.Files(root)
	if err != nil {
		return nil, err
	}

	resolved := make([]layout.Resolved, 0, len(files))
	for _, file := range files {
		r, err := o.layout.Resolve(root, file, destRoot, pass.Tier)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, r)
	}
	return resolved, nil
}

// Run plans passes and executes every job in order.
//
// Parameters:
//   - ctx: Cancelling stops the running generator and skips remaining jobs
//   - passes: Passes in execution order
//
// Returns:
//   - *Report: Always non-nil, describing what ran
//   - error: Planning error, the first job error under PolicyAbort, or every
//     job error combined under PolicyContinue
func (o *Orchestrator) Run(ctx context.Context, passes []Pass) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), Started: time.Now()}
	logger := o.logger.With("run_id", report.RunID)
	defer func() { report.Finished = time.Now() }()

	jobs, err := o.Plan(passes)
	if err != nil {
		logger.Error(err, "planning failed")
		return report, err
	}
	report.Planned = len(jobs)
	logger.Info("starting generation", "jobs", len(jobs), "passes", len(passes), "policy", string(o.policy))

	var failures *multierror.Error
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(errors.CodeCanceled, "run", err)
		}
		if o.observer != nil {
			o.observer(i+1, len(jobs), job)
		}

		started := time.Now()
		res, err := o.gen.Generate(ctx, job)
		jr := JobResult{Job: job, Duration: time.Since(started), Err: err}
		if res != nil {
			jr.ExitCode = res.ExitCode
			if res.Duration > 0 {
				jr.Duration = res.Duration
			}
		}
		report.Results = append(report.Results, jr)

		log := logger.With("pass", job.Pass, "source", job.Source, "destination", job.Destination, "duration", jr.Duration)
		if err == nil {
			log.Info("generated")
			continue
		}
		log.Error(err, "generation failed", "exit_code", jr.ExitCode)

		if errors.IsCode(err, errors.CodeCanceled) || ctx.Err() != nil {
			return report, err
		}
		if o.policy == PolicyAbort {
			return report, err
		}
		failures = multierror.Append(failures, err)
	}

	if failures != nil {
		logger.Warn("generation finished with failures", "failed", failures.Len(), "jobs", len(jobs))
	}
	return report, failures.ErrorOrNil()
}
