package generator

import (
	"context"
	"strings"

	"go.eggybyte.com/bindgen/internal/logx"
)

// DryRun reports the argument list of every job without executing anything.
type DryRun struct {
	Command []string
	Logger  logx.Logger
	// Observe, when set, receives every argument list in call order.
	Observe func(job Job, args []string)
}

// Generate records the job as if it had succeeded.
func (d DryRun) Generate(ctx context.Context, job Job) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	args := Args(d.Command, job)
	if d.Logger != nil {
		d.Logger.Info("dry run", "args", strings.Join(args, " "))
	}
	if d.Observe != nil {
		d.Observe(job, args)
	}
	return &Result{Job: job, Args: args}, nil
}
