package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/justapithecus/terrafile/patch"
	"github.com/justapithecus/terrafile/source"
	"github.com/justapithecus/terrafile/terrafile"
)

// syncModule runs one module's task to completion and returns its
// outcome. Panics are recovered at this boundary so a single broken
// task cannot take down the pool; the captured stack lands in the
// result for diagnosis.
func (o *Orchestrator) syncModule(ctx context.Context, mod terrafile.ModuleSpec, entries []patch.Entry) (result ModuleResult) {
	start := time.Now()
	result.Module = mod.Name

	defer func() {
		if r := recover(); r != nil {
			result = o.failTask(mod.Name, start,
				newTaskError(mod.Name, "task", fmt.Errorf("panic: %v\n%s", r, debug.Stack())))
			result.Message = fmt.Sprintf("panic: %v", r)
		}
		result.Duration = time.Since(start)
		o.logResult(result)
	}()

	target := filepath.Join(o.tf.Dir, mod.Name)
	resolved := source.Classify(mod.Source)

	if resolved.Kind == source.KindLocal {
		return o.copyLocal(mod, resolved, target, start)
	}

	origin, ref, err := o.resolveOrigin(ctx, mod, resolved)
	if err != nil {
		return o.failTask(mod.Name, start, err)
	}

	o.collector.IncTagListing()
	satisfied, err := o.vcs.Satisfied(ctx, target, ref)
	if err != nil {
		return o.failTask(mod.Name, start, newTaskError(mod.Name, "inspect checkout", err))
	}
	if satisfied {
		o.collector.IncModuleSkipped()
		return ModuleResult{
			Module:  mod.Name,
			Status:  StatusSkipped,
			Message: fmt.Sprintf("already at %s", ref),
		}
	}

	// A stale or wrong-version checkout is replaced, never merged.
	if err := os.RemoveAll(target); err != nil {
		return o.failTask(mod.Name, start, newTaskError(mod.Name, "remove stale checkout", err))
	}

	o.collector.IncCloneStarted()
	res, err := o.vcs.Clone(ctx, target, source.InjectCredential(origin, o.token), ref, o.shallow)
	if err != nil {
		o.collector.IncCloneFailed()
		return o.failTask(mod.Name, start, newTaskError(mod.Name, "clone", err))
	}
	if res.ExitCode != 0 {
		o.collector.IncCloneFailed()
		return o.failTask(mod.Name, start, newTaskError(mod.Name, "clone",
			fmt.Errorf("%w: git exited %d: %s", ErrClone, res.ExitCode, strings.TrimSpace(string(res.Output)))))
	}

	if len(entries) > 0 {
		if err := o.applyPatches(ctx, mod, target, entries); err != nil {
			o.collector.IncPatchFailed()
			return o.failTask(mod.Name, start, err)
		}
		o.collector.IncPatchApplied()
	}

	o.collector.IncModuleFetched()
	return ModuleResult{
		Module:  mod.Name,
		Status:  StatusFetched,
		Message: fmt.Sprintf("fetched %s", ref),
	}
}

// copyLocal mirrors a local source directory into the target path.
// Relative sources resolve against the configuration root.
func (o *Orchestrator) copyLocal(mod terrafile.ModuleSpec, resolved source.Resolved, target string, start time.Time) ModuleResult {
	src := resolved.Path
	if !filepath.IsAbs(src) {
		src = filepath.Join(o.tf.Dir, src)
	}
	if err := copyTree(src, target); err != nil {
		return o.failTask(mod.Name, start, newTaskError(mod.Name, "copy", err))
	}
	o.collector.IncModuleCopied()
	return ModuleResult{
		Module:  mod.Name,
		Status:  StatusCopied,
		Message: fmt.Sprintf("copied from %s", mod.Source),
	}
}

// resolveOrigin maps a non-local source to a clone URL and ref.
func (o *Orchestrator) resolveOrigin(ctx context.Context, mod terrafile.ModuleSpec, resolved source.Resolved) (origin, ref string, err error) {
	if resolved.Kind != source.KindRegistry {
		return resolved.URL, mod.Version, nil
	}
	o.collector.IncRegistryLookup()
	origin, ref, err = o.registry.Lookup(ctx, resolved.Namespace, resolved.Name, resolved.Provider, mod.Version)
	if err != nil {
		return "", "", newTaskError(mod.Name, "registry lookup", err)
	}
	return origin, ref, nil
}

// applyPatches stages the module's series into a fresh checkout and
// pushes it. Quilt exiting non-zero on push fails the module's task.
func (o *Orchestrator) applyPatches(ctx context.Context, mod terrafile.ModuleSpec, target string, entries []patch.Entry) error {
	applier := o.patches(target)
	if err := applier.Init(ctx); err != nil {
		return newTaskError(mod.Name, "patch init", err)
	}
	if err := applier.Import(ctx, entries); err != nil {
		return newTaskError(mod.Name, "patch import", err)
	}
	status, err := applier.ApplyAll(ctx)
	if err != nil {
		return newTaskError(mod.Name, "patch apply", err)
	}
	if status != 0 {
		return newTaskError(mod.Name, "patch apply", fmt.Errorf("%w: quilt exited %d", ErrPatchApply, status))
	}
	return nil
}

// failTask records a module failure. Configuration and registry lookup
// errors additionally mark the run fatal so no new tasks start.
func (o *Orchestrator) failTask(module string, start time.Time, err error) ModuleResult {
	if isFatalKind(err) {
		o.setFatal(err)
	}
	o.collector.IncModuleFailed()
	return ModuleResult{
		Module:   module,
		Status:   StatusFailed,
		Message:  err.Error(),
		Err:      err,
		Duration: time.Since(start),
	}
}

func (o *Orchestrator) logResult(result ModuleResult) {
	if o.logger == nil {
		return
	}
	fields := map[string]any{
		"status":      string(result.Status),
		"duration_ms": result.Duration.Milliseconds(),
	}
	if result.Message != "" {
		fields["message"] = result.Message
	}
	l := o.logger.WithModule(result.Module)
	switch result.Status {
	case StatusFailed, StatusAborted:
		l.Error("module sync", fields)
	default:
		l.Info("module sync", fields)
	}
}
