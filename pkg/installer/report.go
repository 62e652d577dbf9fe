package installer

import (
	"time"

	"github.com/pimp-project/pimp-install/pkg/errors"
)

// Status is the outcome class of one step.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
	StatusNotRun  Status = "not-run"
	StatusPlanned Status = "planned"
)

// StepResult records one step of a run.
type StepResult struct {
	Name     string
	Status   Status
	Message  string
	Err      error
	Duration time.Duration
}

// Report is the outcome of a run.
type Report struct {
	RunID  string
	Policy string
	DryRun bool
	// Cancelled is set when the context ended the run early.
	Cancelled  bool
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []StepResult
}

// Succeeded reports whether the run completed with no failed step.
func (r *Report) Succeeded() bool {
	return !r.Cancelled && len(r.Failed()) == 0
}

// Failed returns the failed steps in order.
func (r *Report) Failed() []StepResult {
	var failed []StepResult
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Result returns the named step's result.
func (r *Report) Result(name string) (StepResult, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return StepResult{}, false
}

// Counts tallies results by status.
func (r *Report) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Err summarizes the failures, carrying the first failure's code, or
// returns nil for a successful run.
func (r *Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		if r.Cancelled {
			return errors.New(errors.ErrCancelled, "installation cancelled").WithDetail("run_id", r.RunID)
		}
		return nil
	}
	first := failed[0]
	return errors.Wrapf(first.Err, errors.GetErrorCode(first.Err),
		"%d of %d steps failed, first %s", len(failed), len(r.Results), first.Name).
		WithDetail("run_id", r.RunID)
}
