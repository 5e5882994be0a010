// Package generator invokes the external binding generator for one protocol document.
//
// Overview:
//   - Responsibility: Build the generator argument list and run it to completion
//   - Key Types: Generator, Job, Result, Exec, DryRun, Recorder
//   - Concurrency Model: Each Generate call blocks until the child exits
//   - Error Semantics: Missing executable, crash, timeout and non-zero exit are errors.CodeInvocation
//   - Performance Notes: Child output is buffered in memory
//
// The generator contract is positional:
//
//	<generator> <mode> <source> <destination> [--import <module>]
package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/shlex"

	"go.eggybyte.com/bindgen/internal/errors"
)

// ImportFlag precedes the import module name on the generator command line.
const ImportFlag = "--import"

// Mode selects which side of the protocol the generator emits.
type Mode string

// Generation modes understood by the generator.
const (
	ModeClient Mode = "client"
	ModeServer Mode = "server"
)

// ParseMode validates a mode name. Empty selects ModeClient.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeClient:
		return ModeClient, nil
	case ModeServer:
		return ModeServer, nil
	}
	return "", errors.Newf(errors.CodeInvalidArgument, "unknown mode %q (want client or server)", raw)
}

// Job is one generator invocation.
type Job struct {
	Pass        string // name of the pass that produced the job
	Source      string
	Destination string
	Mode        Mode
	Import      string // module the generated code imports; empty for none
}

func (j Job) String() string {
	return fmt.Sprintf("%s -> %s", j.Source, j.Destination)
}

// Result describes a finished invocation.
type Result struct {
	Job      Job
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Generator produces bindings for a single job.
type Generator interface {
	Generate(ctx context.Context, job Job) (*Result, error)
}

// Args returns the full argument list for job, starting with command.
func Args(command []string, job Job) []string {
	args := make([]string, 0, len(command)+5)
	args = append(args, command...)
	args = append(args, string(job.Mode), job.Source, job.Destination)
	if job.Import != "" {
		args = append(args, ImportFlag, job.Import)
	}
	return args
}

// ParseCommand splits a shell-like generator command such as
// "swift run WaylandScannerCLI" into its words.
func ParseCommand(raw string) ([]string, error) {
	words, err := shlex.Split(raw)
	if err != nil {
		return nil, errors.Wrapf(errors.CodeInvalidArgument, "parse generator command", err, "%q", raw)
	}
	if len(words) == 0 {
		return nil, errors.New(errors.CodeInvalidArgument, "generator command is empty")
	}
	return words, nil
}
