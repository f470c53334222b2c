// Package metrics provides per-run metrics collection for the sync engine.
//
// The Collector accumulates counters during a single sync run. It is a leaf
// package with no internal dependencies. Module tasks increment counters
// concurrently; the orchestrator takes a Snapshot after the pool drains.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all run metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Module outcomes
	ModulesFetched int64
	ModulesCopied  int64
	ModulesSkipped int64
	ModulesFailed  int64

	// Network / subprocess activity
	RegistryLookups  int64
	ClonesStarted    int64
	ClonesFailed     int64
	PatchesApplied   int64
	PatchesFailed    int64
	TagListings      int64

	// Dimensions (informational, set at construction)
	RunID     string
	Terrafile string
	Workers   int
}

// Collector accumulates metrics during a single sync run.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe,
// so call sites never need to guard against an absent collector.
type Collector struct {
	mu sync.Mutex

	modulesFetched int64
	modulesCopied  int64
	modulesSkipped int64
	modulesFailed  int64

	registryLookups int64
	clonesStarted   int64
	clonesFailed    int64
	patchesApplied  int64
	patchesFailed   int64
	tagListings     int64

	runID     string
	terrafile string
	workers   int
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(runID, terrafile string, workers int) *Collector {
	return &Collector{
		runID:     runID,
		terrafile: terrafile,
		workers:   workers,
	}
}

// IncModuleFetched records a module freshly cloned from its source.
func (c *Collector) IncModuleFetched() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.modulesFetched++
	c.mu.Unlock()
}

// IncModuleCopied records a module copied from a local filesystem source.
func (c *Collector) IncModuleCopied() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.modulesCopied++
	c.mu.Unlock()
}

// IncModuleSkipped records a module whose checkout already satisfied the
// requested version.
func (c *Collector) IncModuleSkipped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.modulesSkipped++
	c.mu.Unlock()
}

// IncModuleFailed records a failed module task.
func (c *Collector) IncModuleFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.modulesFailed++
	c.mu.Unlock()
}

// IncRegistryLookup records a registry download-URL lookup.
func (c *Collector) IncRegistryLookup() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.registryLookups++
	c.mu.Unlock()
}

// IncCloneStarted records a clone invocation.
func (c *Collector) IncCloneStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.clonesStarted++
	c.mu.Unlock()
}

// IncCloneFailed records a clone that exited non-zero.
func (c *Collector) IncCloneFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.clonesFailed++
	c.mu.Unlock()
}

// IncPatchApplied records a patch series applied cleanly.
func (c *Collector) IncPatchApplied() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.patchesApplied++
	c.mu.Unlock()
}

// IncPatchFailed records a patch series that failed to apply.
func (c *Collector) IncPatchFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.patchesFailed++
	c.mu.Unlock()
}

// IncTagListing records a tags-at-HEAD listing (idempotency probe).
func (c *Collector) IncTagListing() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.tagListings++
	c.mu.Unlock()
}

// Snapshot returns an immutable point-in-time view of all metrics.
// The Collector can continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		ModulesFetched: c.modulesFetched,
		ModulesCopied:  c.modulesCopied,
		ModulesSkipped: c.modulesSkipped,
		ModulesFailed:  c.modulesFailed,

		RegistryLookups: c.registryLookups,
		ClonesStarted:   c.clonesStarted,
		ClonesFailed:    c.clonesFailed,
		PatchesApplied:  c.patchesApplied,
		PatchesFailed:   c.patchesFailed,
		TagListings:     c.tagListings,

		RunID:     c.runID,
		Terrafile: c.terrafile,
		Workers:   c.workers,
	}
}
