package generator

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"go.eggybyte.com/bindgen/internal/errors"
	"go.eggybyte.com/bindgen/internal/logx"
	"go.eggybyte.com/bindgen/internal/toolrunner"
)

// maxStderr bounds the stderr tail carried in invocation errors.
const maxStderr = 2048

// Runner executes a child process to completion.
type Runner interface {
	Exec(ctx context.Context, name string, args ...string) (*toolrunner.CommandResult, error)
}

// Exec runs the generator as a child process.
type Exec struct {
	command []string
	runner  Runner
	timeout time.Duration
	logger  logx.Logger
}

// Option configures an Exec generator.
type Option func(*Exec)

// WithTimeout bounds each invocation. Zero waits indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(e *Exec) {
		e.timeout = d
	}
}

// WithLogger sets the logger used for invocation records.
func WithLogger(l logx.Logger) Option {
	return func(e *Exec) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExec creates a generator running command through runner.
//
// Parameters:
//   - command: Executable followed by fixed leading arguments
//   - runner: Process runner, usually *toolrunner.Runner
//
// Returns:
//   - *Exec: Generator instance
//   - error: CodeInvalidArgument when command is empty or runner is nil
func NewExec(command []string, runner Runner, opts ...Option) (*Exec, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "generator command is empty")
	}
	if runner == nil {
		return nil, errors.New(errors.CodeInvalidArgument, "generator runner is nil")
	}
	e := &Exec{
		command: append([]string(nil), command...),
		runner:  runner,
		logger:  logx.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Command returns the generator command words.
func (e *Exec) Command() []string {
	return append([]string(nil), e.command...)
}

// Generate runs the generator for job and checks its exit status.
func (e *Exec) Generate(ctx context.Context, job Job) (*Result, error) {
	args := Args(e.command, job)

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.logger.Debug("invoking generator", "args", strings.Join(args, " "))
	res, err := e.runner.Exec(runCtx, args[0], args[1:]...)

	result := &Result{Job: job, Args: args, ExitCode: -1}
	if res != nil {
		result.ExitCode = res.ExitCode
		result.Stdout = res.Stdout
		result.Stderr = res.Stderr
		result.Duration = res.Duration
	}
	if err == nil {
		return result, nil
	}
	return result, e.invocationError(ctx, job, result, err)
}

func (e *Exec) invocationError(ctx context.Context, job Job, result *Result, err error) error {
	b := errors.Build(errors.CodeInvocation).
		WithOp("generate").
		WithErr(err).
		WithDetails("source", job.Source, "destination", job.Destination, "exit_code", result.ExitCode)

	var exitErr *toolrunner.ExitError
	switch {
	case ctx.Err() != nil:
		return errors.Build(errors.CodeCanceled).
			WithOp("generate").
			WithErr(ctx.Err()).
			WithMsgf("%s: generation interrupted", job).
			Err()
	case stderrors.Is(err, context.DeadlineExceeded):
		b.WithMsgf("%s: generator timed out after %s", job, e.timeout)
	case stderrors.Is(err, toolrunner.ErrNotFound):
		b.WithMsgf("%s: generator %s not found", job, e.command[0])
	case stderrors.As(err, &exitErr):
		b.WithMsgf("%s: generator exited with code %d", job, exitErr.ExitCode).
			WithDetails("stderr", tail(exitErr.Stderr))
	default:
		b.WithMsgf("%s: generator failed to run", job)
	}
	return b.Err()
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxStderr {
		return s
	}
	return "..." + s[len(s)-maxStderr:]
}
