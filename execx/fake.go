package execx

import (
	"context"
	"strings"
	"sync"
)

// Call records one invocation observed by a FakeRunner.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// FakeRunner is a scriptable Runner for tests. Responses are matched by
// command name plus the first argument (e.g. "git clone", "quilt push");
// unmatched commands succeed with empty output.
type FakeRunner struct {
	mu        sync.Mutex
	calls     []Call
	responses map[string]Result
	errs      map[string]error
}

// NewFakeRunner returns an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		responses: make(map[string]Result),
		errs:      make(map[string]error),
	}
}

// Respond registers the result returned for a "name subcommand" key.
func (f *FakeRunner) Respond(key string, result Result) {
	f.mu.Lock()
	f.responses[key] = result
	f.mu.Unlock()
}

// Fail registers a run-level error for a "name subcommand" key.
func (f *FakeRunner) Fail(key string, err error) {
	f.mu.Lock()
	f.errs[key] = err
	f.mu.Unlock()
}

// Run records the call and returns the scripted response.
func (f *FakeRunner) Run(ctx context.Context, dir string, name string, args ...string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{ExitCode: -1}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, Call{Dir: dir, Name: name, Args: append([]string(nil), args...)})

	key := name
	if len(args) > 0 {
		key = name + " " + args[0]
	}
	if err, ok := f.errs[key]; ok {
		return Result{ExitCode: -1}, err
	}
	if res, ok := f.responses[key]; ok {
		return res, nil
	}
	return Result{}, nil
}

// Calls returns a copy of all recorded calls.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallStrings renders recorded calls as space-joined command lines,
// convenient for assertions.
func (f *FakeRunner) CallStrings() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		lines = append(lines, strings.Join(append([]string{c.Name}, c.Args...), " "))
	}
	return lines
}
