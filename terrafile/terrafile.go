// Package terrafile handles Terrafile configuration loading.
//
// A Terrafile is a YAML mapping from module name to source details:
//
//	tf-aws-vpc:
//	  source: "terraform-aws-modules/vpc/aws"
//	  version: "3.0.0"
//	  patches:
//	    - |
//	      --- a/main.tf
//	      ...
//	  patches_file:
//	    - patches/0001-fix.patch
//
// The reserved top-level key "setup" holds run settings (worker count)
// and is never treated as a module.
package terrafile

import (
	"errors"
	"fmt"
	"sort"
)

// Version is the canonical project version.
const Version = "0.5.0"

// DefaultFilename is the config file name searched for when the CLI is
// given a directory.
const DefaultFilename = "Terrafile"

// SetupKey is the reserved top-level mapping key for run settings.
const SetupKey = "setup"

// ErrConfig is the sentinel for configuration errors: empty or missing
// config, a module without a source, an unusable patch declaration.
// Configuration errors are fatal to the whole run and are detected before
// any network or subprocess call.
var ErrConfig = errors.New("configuration error")

// ModuleSpec is one declared external dependency. Immutable once read.
type ModuleSpec struct {
	// Name is the mapping key, unique within one Terrafile.
	Name string `yaml:"-"`
	// Source is the raw locator: a local path, a registry triple, or a
	// clone-ready URL.
	Source string `yaml:"source"`
	// Version is the requested ref. Its semantics depend on the resolved
	// source kind; local sources ignore it.
	Version string `yaml:"version"`
	// Patches is the ordered series of inline patch texts.
	Patches []string `yaml:"patches"`
	// PatchFiles is the ordered series of patch file paths, relative to
	// the Terrafile directory. Applied after all inline patches.
	PatchFiles []string `yaml:"patches_file"`
}

// HasPatches reports whether the module declares any patch series.
func (m ModuleSpec) HasPatches() bool {
	return len(m.Patches) > 0 || len(m.PatchFiles) > 0
}

// Setup holds run settings from the reserved "setup" key.
type Setup struct {
	// Jobs is the worker pool size. Zero means use the default.
	Jobs int `yaml:"jobs"`
}

// Terrafile is a parsed configuration document.
type Terrafile struct {
	// Path is the absolute path of the config file.
	Path string
	// Dir is the directory containing the config file. Local sources,
	// patch file references, and module targets resolve against it.
	Dir string
	// Setup holds run settings.
	Setup Setup
	// Modules is the declared module set, sorted by name for
	// deterministic scheduling.
	Modules []ModuleSpec
}

// Module returns the spec for name, if declared.
func (t *Terrafile) Module(name string) (ModuleSpec, bool) {
	for _, m := range t.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return ModuleSpec{}, false
}

// validate checks the parsed document before any work is scheduled.
func (t *Terrafile) validate() error {
	if len(t.Modules) == 0 {
		return fmt.Errorf("%w: %s declares no modules", ErrConfig, t.Path)
	}
	for _, m := range t.Modules {
		if m.Source == "" {
			return fmt.Errorf("%w: module %q has no source", ErrConfig, m.Name)
		}
	}
	if t.Setup.Jobs < 0 {
		return fmt.Errorf("%w: setup.jobs must be >= 0, got %d", ErrConfig, t.Setup.Jobs)
	}
	return nil
}

// sortModules orders modules by name. The sync engine gives no ordering
// guarantee, but a deterministic submission order keeps logs and reports
// stable across runs.
func (t *Terrafile) sortModules() {
	sort.Slice(t.Modules, func(i, j int) bool {
		return t.Modules[i].Name < t.Modules[j].Name
	})
}
