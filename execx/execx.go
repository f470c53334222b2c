// Package execx abstracts external command execution.
//
// The sync engine drives two external binaries (git and quilt) through the
// Runner interface, so every call site can be tested against a fake without
// spawning processes. ExecRunner is the real implementation on top of os/exec.
package execx

import (
	"context"
	"errors"
	"os/exec"
)

// Result is the outcome of one command invocation.
type Result struct {
	// Output is the combined stdout and stderr of the process.
	Output []byte
	// ExitCode is the process exit status. Zero on success.
	ExitCode int
}

// Runner executes a command in a working directory and reports its
// combined output and exit status.
//
// A non-zero exit status is NOT an error: it is reported through
// Result.ExitCode so callers can apply their own fatality rules. The
// returned error is reserved for failures to run the command at all
// (binary not found, context canceled, pipe setup).
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (Result, error)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes name with args in dir. An empty dir runs in the
// process working directory.
func (r *ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{Output: output, ExitCode: exitErr.ExitCode()}, nil
		}
		return Result{Output: output, ExitCode: -1}, err
	}

	return Result{Output: output, ExitCode: 0}, nil
}
