// Package patch applies ordered patch series to a checkout via quilt.
//
// Entries are staged under deterministic names (patch_<index>.patch) and
// pushed as one series, stopping at the first entry that fails to apply.
// Series declarations are validated eagerly, before any quilt command runs.
package patch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/justapithecus/terrafile/execx"
	"github.com/justapithecus/terrafile/iox"
	"github.com/justapithecus/terrafile/terrafile"
)

// Entry is one patch in a series. Exactly one of Inline and File must be
// set. Index is the position within the module's combined series: inline
// entries first, then file entries, one contiguous counter.
type Entry struct {
	Index  int
	Inline string
	// File is a patch path relative to the Terrafile directory
	// (absolute paths are taken as-is).
	File string
}

// Name returns the deterministic staged name for the entry.
func (e Entry) Name() string {
	return fmt.Sprintf("patch_%d.patch", e.Index)
}

// validate checks that exactly one origin variant is populated.
func (e Entry) validate() error {
	if e.Inline != "" && e.File != "" {
		return fmt.Errorf("%w: patch entry %d has both inline content and a file reference", terrafile.ErrConfig, e.Index)
	}
	if e.Inline == "" && e.File == "" {
		return fmt.Errorf("%w: patch entry %d has neither inline content nor a file reference", terrafile.ErrConfig, e.Index)
	}
	return nil
}

// Entries builds the validated series for a module: inline texts first in
// declared order, then file references in declared order, sharing one index
// counter. File references are resolved against root and must exist; a
// missing file is a configuration error surfaced before any command runs.
func Entries(inline, files []string, root string) ([]Entry, error) {
	entries := make([]Entry, 0, len(inline)+len(files))
	index := 0

	for _, content := range inline {
		entries = append(entries, Entry{Index: index, Inline: content})
		index++
	}
	for _, ref := range files {
		path := ref
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, ref)
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			return nil, fmt.Errorf("%w: patch file %q not readable", terrafile.ErrConfig, ref)
		}
		entries = append(entries, Entry{Index: index, File: path})
		index++
	}

	for _, e := range entries {
		if err := e.validate(); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// Engine stages and applies one module's patch series via quilt.
// It is bound to a single checkout directory.
type Engine struct {
	runner   execx.Runner
	checkout string
	staged   int
}

// NewEngine creates a patch engine for the checkout directory.
func NewEngine(runner execx.Runner, checkout string) *Engine {
	return &Engine{runner: runner, checkout: checkout}
}

// Init prepares the checkout for quilt: creates the patches directory and
// runs quilt init. Idempotent.
func (e *Engine) Init(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Join(e.checkout, "patches"), 0o755); err != nil {
		return fmt.Errorf("create patches directory: %w", err)
	}
	res, err := e.runner.Run(ctx, e.checkout, "quilt", "init")
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("quilt init exited %d: %s", res.ExitCode, res.Output)
	}
	return nil
}

// Import stages every entry in order. Entries must already be validated
// (see Entries); Import revalidates as a cheap invariant check. Inline
// content is written to a transient file with a trailing newline appended,
// matching what quilt expects of a well-formed patch.
func (e *Engine) Import(ctx context.Context, entries []Entry) error {
	for _, entry := range entries {
		if err := entry.validate(); err != nil {
			return err
		}

		path := entry.File
		if entry.Inline != "" {
			tmp, err := os.CreateTemp("", "terrafile-patch-*")
			if err != nil {
				return fmt.Errorf("stage inline patch %d: %w", entry.Index, err)
			}
			tmpPath := tmp.Name()
			_, werr := tmp.WriteString(entry.Inline + "\n")
			iox.DiscardClose(tmp)
			if werr != nil {
				_ = os.Remove(tmpPath)
				return fmt.Errorf("stage inline patch %d: %w", entry.Index, werr)
			}
			defer func() { _ = os.Remove(tmpPath) }()
			path = tmpPath
		}

		res, err := e.runner.Run(ctx, e.checkout, "quilt", "import", "-P", entry.Name(), path)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("quilt import %s exited %d: %s", entry.Name(), res.ExitCode, res.Output)
		}
		e.staged++
	}
	return nil
}

// ApplyAll pushes the full staged series onto the checkout, stopping at
// the first entry that fails to apply. Returns the exit status of the
// push: zero when the series is empty or every entry applied.
func (e *Engine) ApplyAll(ctx context.Context) (int, error) {
	if e.staged == 0 {
		return 0, nil
	}
	res, err := e.runner.Run(ctx, e.checkout, "quilt", "push", "-a")
	if err != nil {
		return -1, err
	}
	return res.ExitCode, nil
}

// PopAll removes all applied patches from the checkout.
func (e *Engine) PopAll(ctx context.Context) (int, error) {
	res, err := e.runner.Run(ctx, e.checkout, "quilt", "pop", "-a")
	if err != nil {
		return -1, err
	}
	return res.ExitCode, nil
}

// Series lists the staged patch names in application order.
func (e *Engine) Series(ctx context.Context) ([]string, error) {
	res, err := e.runner.Run(ctx, e.checkout, "quilt", "series")
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("quilt series exited %d: %s", res.ExitCode, res.Output)
	}

	var names []string
	for _, line := range strings.Split(string(res.Output), "\n") {
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}
