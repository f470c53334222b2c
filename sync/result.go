package sync

import "time"

// Status is the terminal outcome of a single module task.
type Status string

const (
	// StatusFetched means the module was cloned (and patched, if a series
	// was declared).
	StatusFetched Status = "fetched"
	// StatusCopied means a local source directory was copied into place.
	StatusCopied Status = "copied"
	// StatusSkipped means the existing checkout already satisfied the
	// requested version and was left untouched.
	StatusSkipped Status = "skipped"
	// StatusFailed means the task ran and failed.
	StatusFailed Status = "failed"
	// StatusAborted means the task never started because the run was
	// fatally failed before it was scheduled.
	StatusAborted Status = "aborted"
)

// ModuleResult is the outcome of one module's synchronization task.
type ModuleResult struct {
	Module   string        `json:"module" yaml:"module"`
	Status   Status        `json:"status" yaml:"status"`
	Message  string        `json:"message,omitempty" yaml:"message,omitempty"`
	Err      error         `json:"-" yaml:"-"`
	Duration time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// RunResult aggregates the outcomes of a whole synchronization run.
// Results are ordered by module name, matching the scheduling order.
type RunResult struct {
	Results  []ModuleResult `json:"results" yaml:"results"`
	Fatal    error          `json:"-" yaml:"-"`
	Duration time.Duration  `json:"duration_ns" yaml:"duration_ns"`
}

// Failed reports whether the run should be considered unsuccessful:
// either a fatal error stopped it or at least one module task failed.
func (r *RunResult) Failed() bool {
	if r.Fatal != nil {
		return true
	}
	for _, res := range r.Results {
		if res.Status == StatusFailed || res.Status == StatusAborted {
			return true
		}
	}
	return false
}

// Counts tallies results by terminal status.
func (r *RunResult) Counts() map[Status]int {
	counts := make(map[Status]int, 5)
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}
