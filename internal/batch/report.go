package batch

import (
	"time"

	"go.eggybyte.com/bindgen/internal/generator"
)

// JobResult is the outcome of one executed job.
type JobResult struct {
	Job      generator.Job
	ExitCode int
	Duration time.Duration
	Err      error
}

// Report summarizes a run.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	// Planned counts jobs produced by planning, executed or not.
	Planned int
	Results []JobResult
}

// Succeeded returns the number of jobs that finished without error.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the results of failed jobs in execution order.
func (r *Report) Failed() []JobResult {
	var failed []JobResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Skipped returns the number of planned jobs that never ran.
func (r *Report) Skipped() int {
	return r.Planned - len(r.Results)
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return time.Since(r.Started)
	}
	return r.Finished.Sub(r.Started)
}
