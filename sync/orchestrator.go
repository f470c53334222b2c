package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/justapithecus/terrafile/execx"
	"github.com/justapithecus/terrafile/log"
	"github.com/justapithecus/terrafile/metrics"
	"github.com/justapithecus/terrafile/patch"
	"github.com/justapithecus/terrafile/source"
	"github.com/justapithecus/terrafile/terrafile"
	"github.com/justapithecus/terrafile/vcs"
)

// DefaultWorkers is the worker-pool size used when the configuration
// does not override it via setup.jobs.
const DefaultWorkers = 4

// VersionControl is the subset of git operations a synchronization run
// needs. *vcs.Git satisfies it.
type VersionControl interface {
	Clone(ctx context.Context, target, origin, ref string, shallow bool) (execx.Result, error)
	Satisfied(ctx context.Context, target, ref string) (bool, error)
}

// Registry resolves registry-form sources to a clone URL and ref.
// *source.RegistryClient satisfies it.
type Registry interface {
	Lookup(ctx context.Context, namespace, name, provider, version string) (gitURL, ref string, err error)
}

// PatchApplier stages and applies a patch series inside one checkout.
// *patch.Engine satisfies it.
type PatchApplier interface {
	Init(ctx context.Context) error
	Import(ctx context.Context, entries []patch.Entry) error
	ApplyAll(ctx context.Context) (int, error)
}

// PatchApplierFactory builds an applier bound to a checkout directory.
type PatchApplierFactory func(checkout string) PatchApplier

// Config assembles the collaborators for a synchronization run. Zero
// fields get production defaults in NewOrchestrator; tests substitute
// fakes.
type Config struct {
	// Terrafile is the loaded configuration. Required.
	Terrafile *terrafile.Terrafile

	// Workers bounds task concurrency. Resolution order: this field,
	// then setup.jobs from the configuration, then DefaultWorkers.
	Workers int

	// Shallow requests depth-1 single-branch clones.
	Shallow bool

	// Token is an optional credential injected into GitHub clone URLs.
	// It is read once at the CLI boundary and passed down explicitly.
	Token string

	VCS      VersionControl
	Registry Registry
	Patches  PatchApplierFactory

	Logger    *log.Logger
	Collector *metrics.Collector
}

// Orchestrator drives one synchronization run: it validates patch
// declarations up front, then fans module tasks out over a bounded
// worker pool and aggregates their outcomes.
type Orchestrator struct {
	tf        *terrafile.Terrafile
	workers   int
	shallow   bool
	token     string
	vcs       VersionControl
	registry  Registry
	patches   PatchApplierFactory
	logger    *log.Logger
	collector *metrics.Collector

	fatalMu stdsync.Mutex
	fatal   error
}

// NewOrchestrator validates the configuration and applies production
// defaults for any collaborator left nil.
func NewOrchestrator(cfg *Config) (*Orchestrator, error) {
	if cfg == nil || cfg.Terrafile == nil {
		return nil, fmt.Errorf("%w: no configuration loaded", terrafile.ErrConfig)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = cfg.Terrafile.Setup.Jobs
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	o := &Orchestrator{
		tf:        cfg.Terrafile,
		workers:   workers,
		shallow:   cfg.Shallow,
		token:     cfg.Token,
		vcs:       cfg.VCS,
		registry:  cfg.Registry,
		patches:   cfg.Patches,
		logger:    cfg.Logger,
		collector: cfg.Collector,
	}
	if o.vcs == nil {
		o.vcs = vcs.NewGit(execx.NewExecRunner())
	}
	if o.registry == nil {
		o.registry = source.NewRegistryClient()
	}
	if o.patches == nil {
		runner := execx.NewExecRunner()
		o.patches = func(checkout string) PatchApplier {
			return patch.NewEngine(runner, checkout)
		}
	}
	return o, nil
}

// Run executes every module task and aggregates outcomes. Patch
// declarations are validated before any task starts, so a broken
// series fails the run without touching the filesystem or network.
// A fatal error (configuration or registry lookup) stops new tasks
// from starting; tasks already in flight run to completion.
func (o *Orchestrator) Run(ctx context.Context) *RunResult {
	start := time.Now()
	run := &RunResult{}

	entries, err := o.preflight()
	if err != nil {
		o.logError("preflight failed", err)
		run.Fatal = err
		run.Duration = time.Since(start)
		return run
	}

	modules := o.tf.Modules
	results := make([]ModuleResult, len(modules))

	sem := make(chan struct{}, o.workers)
	var wg stdsync.WaitGroup

	for i, mod := range modules {
		if err := ctx.Err(); err != nil {
			o.setFatal(err)
			results[i] = ModuleResult{
				Module: mod.Name,
				Status: StatusAborted,
				Err:    newTaskError(mod.Name, "schedule", err),
			}
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = ModuleResult{
				Module: mod.Name,
				Status: StatusAborted,
				Err:    newTaskError(mod.Name, "schedule", ctx.Err()),
			}
			o.setFatal(ctx.Err())
			continue
		}

		// Checked after slot acquisition so a fatal failure observed
		// while waiting still stops this task from starting.
		if fatal := o.fatalErr(); fatal != nil {
			<-sem
			results[i] = ModuleResult{
				Module: mod.Name,
				Status: StatusAborted,
				Err:    newTaskError(mod.Name, "schedule", ErrAborted),
			}
			continue
		}

		wg.Add(1)
		go func(idx int, m terrafile.ModuleSpec) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = o.syncModule(ctx, m, entries[m.Name])
		}(i, mod)
	}

	wg.Wait()

	run.Results = results
	run.Fatal = o.fatalErr()
	run.Duration = time.Since(start)

	o.logSummary(run)
	return run
}

// preflight builds and validates every module's patch entries before
// any task is scheduled. Returns the entries keyed by module name.
func (o *Orchestrator) preflight() (map[string][]patch.Entry, error) {
	entries := make(map[string][]patch.Entry, len(o.tf.Modules))
	for _, mod := range o.tf.Modules {
		if !mod.HasPatches() {
			continue
		}
		es, err := patch.Entries(mod.Patches, mod.PatchFiles, o.tf.Dir)
		if err != nil {
			return nil, newTaskError(mod.Name, "patch preflight", err)
		}
		entries[mod.Name] = es
	}
	return entries, nil
}

func (o *Orchestrator) setFatal(err error) {
	o.fatalMu.Lock()
	defer o.fatalMu.Unlock()
	if o.fatal == nil {
		o.fatal = err
	}
}

func (o *Orchestrator) fatalErr() error {
	o.fatalMu.Lock()
	defer o.fatalMu.Unlock()
	return o.fatal
}

func (o *Orchestrator) logSummary(run *RunResult) {
	if o.logger == nil {
		return
	}
	counts := run.Counts()
	snap := o.collector.Snapshot()
	fields := map[string]any{
		"fetched":          counts[StatusFetched],
		"copied":           counts[StatusCopied],
		"skipped":          counts[StatusSkipped],
		"failed":           counts[StatusFailed],
		"aborted":          counts[StatusAborted],
		"registry_lookups": snap.RegistryLookups,
		"clones_started":   snap.ClonesStarted,
		"patches_applied":  snap.PatchesApplied,
		"duration_ms":      run.Duration.Milliseconds(),
	}
	if run.Failed() {
		if run.Fatal != nil {
			fields["fatal"] = run.Fatal.Error()
		}
		o.logger.Error("run failed", fields)
		return
	}
	o.logger.Info("run complete", fields)
}

func (o *Orchestrator) logError(message string, err error) {
	if o.logger == nil {
		return
	}
	o.logger.Error(message, map[string]any{"error": err.Error()})
}

// isFatalKind reports whether a task error should abort the whole run.
func isFatalKind(err error) bool {
	return errors.Is(err, terrafile.ErrConfig) || errors.Is(err, source.ErrRegistryLookup)
}
