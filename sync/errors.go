// Package sync orchestrates module synchronization runs.
//
// This file defines sentinel errors and the task error wrapper used to
// classify failures. Callers use errors.Is for typed assertions rather
// than string matching.
package sync

import (
	"errors"
	"fmt"
)

// Sentinel errors for failure classification. Configuration and registry
// failures additionally carry their own sentinels from the terrafile and
// source packages; the orchestrator treats those as run-fatal.
var (
	// ErrClone indicates a clone that exited non-zero. Clone failures fail
	// their own module's task and are aggregated like any other task
	// failure.
	ErrClone = errors.New("clone failed")

	// ErrPatchApply indicates a patch series that failed to apply. Fatal
	// only to the owning module's task.
	ErrPatchApply = errors.New("patch application failed")

	// ErrAborted marks a module task that never started because the run
	// was already fatally failed.
	ErrAborted = errors.New("run aborted")
)

// TaskError wraps an underlying error with the module and operation that
// produced it. It preserves the original error in the chain for
// inspection via errors.Is/errors.As.
type TaskError struct {
	// Module is the declared module name.
	Module string
	// Op is the operation that failed (e.g. "clone", "patch", "copy").
	Op string
	// Err is the underlying error.
	Err error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("module %s: %s: %v", e.Module, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// newTaskError creates a classified task error.
func newTaskError(module, op string, err error) *TaskError {
	return &TaskError{Module: module, Op: op, Err: err}
}
