package generator

import (
	"context"
	"sync"

	"go.eggybyte.com/bindgen/internal/errors"
)

// Recorder is an in-memory Generator that remembers every job it receives.
// It can be primed to fail for chosen sources.
type Recorder struct {
	// Command is prepended to recorded argument lists.
	Command []string

	mu     sync.Mutex
	jobs   []Job
	failOn map[string]error
}

// NewRecorder returns an empty Recorder using command for argument lists.
func NewRecorder(command ...string) *Recorder {
	return &Recorder{Command: command}
}

// FailOn makes invocations for source fail with err. A nil err fails with a
// generic non-zero exit.
func (r *Recorder) FailOn(source string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn == nil {
		r.failOn = make(map[string]error)
	}
	r.failOn[source] = err
}

// Generate records job and returns the primed outcome.
func (r *Recorder) Generate(ctx context.Context, job Job) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)

	result := &Result{Job: job, Args: Args(r.Command, job)}
	if err, ok := r.failOn[job.Source]; ok {
		if err == nil {
			err = errors.Newf(errors.CodeInvocation, "%s: generator exited with code 1", job)
		}
		result.ExitCode = 1
		return result, err
	}
	return result, nil
}

// Jobs returns the recorded jobs in call order.
func (r *Recorder) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Job(nil), r.jobs...)
}

// Calls returns the recorded argument lists in call order.
func (r *Recorder) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := make([][]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		calls = append(calls, Args(r.Command, job))
	}
	return calls
}

// Reset forgets recorded jobs; primed failures are kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = nil
}
