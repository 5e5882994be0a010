// Package toolrunner provides execution of external tools and commands.
//
// Overview:
//   - Responsibility: Run the protocol generator and other helper tools as child processes
//   - Key Types: Runner, CommandResult
//   - Concurrency Model: Sequential command execution with context support
//   - Error Semantics: Start failures, crashes and non-zero exits are all returned as errors
//   - Performance Notes: Output is captured in memory and optionally mirrored
//
// Usage:
//
//	runner := toolrunner.NewRunner(".")
//	result, err := runner.Exec(ctx, "wayland-scanner", "client", "in.xml", "out")
package toolrunner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.eggybyte.com/bindgen/internal/ui"
)

// ErrNotFound is returned when the executable cannot be located.
var ErrNotFound = errors.New("executable not found")

// Runner starts child processes in a fixed working directory and waits for them.
// Configure it before first use; Exec may then be called concurrently.
type Runner struct {
	workDir string
	verbose bool
	mirror  io.Writer
	env     []string
}

// CommandResult is what a finished child left behind. ExitCode is -1 when the
// process never started or was killed by a signal.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// ExitError reports a command that ran and did not exit cleanly.
type ExitError struct {
	Name     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("%s exited with code %d: %v", e.Name, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Name, e.ExitCode, stderr)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewRunner returns a Runner executing in workDir; empty means the current directory.
func NewRunner(workDir string) *Runner {
	return &Runner{
		workDir: workDir,
	}
}

// SetVerbose enables or disables echoing of command lines.
func (r *Runner) SetVerbose(enabled bool) {
	r.verbose = enabled
}

// SetMirror copies child output to w while it is captured. Nil disables mirroring.
func (r *Runner) SetMirror(w io.Writer) {
	r.mirror = w
}

// SetEnv adds environment entries on top of the current process environment.
func (r *Runner) SetEnv(env ...string) {
	r.env = append([]string{}, env...)
}

// Exec runs a command, waits for it to exit and checks its status.
//
// Parameters:
//   - ctx: Context for cancellation; cancelling kills the child
//   - name: Executable name or path
//   - args: Command arguments
//
// Returns:
//   - *CommandResult: Command execution result, also populated on failure
//   - error: ErrNotFound, *ExitError, or the context error
//
// Concurrency:
//   - Blocks until the child exits
func (r *Runner) Exec(ctx context.Context, name string, args ...string) (*CommandResult, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.workDir
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}

	if r.verbose {
		ui.Debug("Running: %s %s", name, strings.Join(args, " "))
	}

	var stdout, stderr strings.Builder
	if r.mirror != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.mirror)
		cmd.Stderr = io.MultiWriter(&stderr, r.mirror)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()

	result := &CommandResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("%s interrupted: %w", name, ctxErr)
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return result, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return result, &ExitError{Name: name, ExitCode: result.ExitCode, Stderr: result.Stderr, Err: err}
	}
	return result, fmt.Errorf("command failed: %w", err)
}

// CheckToolAvailability checks if a tool is available in PATH or at the given path.
//
// Parameters:
//   - toolName: Name or path of the tool to check
//
// Returns:
//   - string: Resolved path of the tool
//   - error: ErrNotFound wrapped with the tool name if missing
func CheckToolAvailability(toolName string) (string, error) {
	path, err := exec.LookPath(toolName)
	if err != nil {
		return "", fmt.Errorf("%s: %w", toolName, ErrNotFound)
	}
	return path, nil
}
