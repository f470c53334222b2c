// Package vcs wraps the external git binary for the sync engine.
//
// All process execution goes through an execx.Runner so every operation can
// be tested against a fake. Non-zero exit statuses are reported through the
// returned execx.Result; fatality rules belong to the caller.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/justapithecus/terrafile/execx"
)

// ErrNoOrigin indicates an existing checkout has no discoverable origin
// remote. This is a configuration error: the checkout cannot be refreshed
// without knowing where it came from.
var ErrNoOrigin = errors.New("no origin remote configured")

// ErrTargetExists indicates a clone target already exists. The caller is
// responsible for removing any prior tree before cloning; this error means
// it did not.
var ErrTargetExists = errors.New("clone target already exists")

// Git executes git operations through a command runner.
type Git struct {
	runner execx.Runner
}

// NewGit creates a git client on top of runner.
func NewGit(runner execx.Runner) *Git {
	return &Git{runner: runner}
}

// Clone clones origin into target restricted to the branch or tag ref.
// When shallow, history is limited to depth 1 on a single branch.
//
// The target must not exist; missing parent directories are created.
// A non-zero git exit status is reported via the Result, not the error.
func (g *Git) Clone(ctx context.Context, target, origin, ref string, shallow bool) (execx.Result, error) {
	if _, err := os.Stat(target); err == nil {
		return execx.Result{}, fmt.Errorf("%w: %s", ErrTargetExists, target)
	}

	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return execx.Result{}, fmt.Errorf("create parent directory: %w", err)
	}

	args := []string{"clone", "--branch=" + ref}
	if shallow {
		args = append(args, "--depth=1", "--single-branch")
	}
	args = append(args, origin, target)

	return g.runner.Run(ctx, parent, "git", args...)
}

// Origin discovers the fetch URL registered under the remote name "origin"
// in an existing checkout. Absence is an ErrNoOrigin.
func (g *Git) Origin(ctx context.Context, path string) (string, error) {
	res, err := g.runner.Run(ctx, path, "git", "remote", "-v")
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%w: git remote -v exited %d: %s", ErrNoOrigin, res.ExitCode, res.Output)
	}

	for _, line := range strings.Split(string(res.Output), "\n") {
		if !strings.Contains(line, "origin") || !strings.Contains(line, "(fetch)") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			return fields[1], nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoOrigin, path)
}

// TagsAtHead lists tags pointing at the checkout's current HEAD.
//
// A non-zero git status (not a repository, no HEAD yet) yields an empty
// set rather than an error: the caller treats "cannot list tags" the same
// as "no tags".
func (g *Git) TagsAtHead(ctx context.Context, path string) (map[string]struct{}, error) {
	res, err := g.runner.Run(ctx, path, "git", "tag", "--points-at=HEAD")
	if err != nil {
		return nil, err
	}

	tags := make(map[string]struct{})
	if res.ExitCode != 0 {
		return tags, nil
	}
	for _, tag := range strings.Fields(string(res.Output)) {
		tags[tag] = struct{}{}
	}
	return tags, nil
}

// Satisfied reports whether the checkout at target already has ref among
// the tags at its HEAD. A missing target is never satisfied. The match is
// a syntactic exact match against tag names; branch refs are mutable and
// will virtually never satisfy it, forcing a fresh clone each run.
func (g *Git) Satisfied(ctx context.Context, target, ref string) (bool, error) {
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return false, nil
	}
	tags, err := g.TagsAtHead(ctx, target)
	if err != nil {
		return false, err
	}
	_, ok := tags[ref]
	return ok, nil
}

// Fetch updates the checkout from its upstream.
func (g *Git) Fetch(ctx context.Context, path string) error {
	res, err := g.runner.Run(ctx, path, "git", "fetch")
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("git fetch exited %d: %s", res.ExitCode, res.Output)
	}
	return nil
}

// IsShallow reports whether the checkout was cloned with limited history.
func (g *Git) IsShallow(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git", "shallow"))
	return err == nil && !info.IsDir()
}

// OriginTags lists tag names known to the checkout's upstream. Shallow
// checkouts query the remote directly; full checkouts fetch first and then
// list locally.
func (g *Git) OriginTags(ctx context.Context, path string) ([]string, error) {
	var res execx.Result
	var err error
	if g.IsShallow(path) {
		origin, oerr := g.Origin(ctx, path)
		if oerr != nil {
			return nil, oerr
		}
		res, err = g.runner.Run(ctx, path, "git", "ls-remote", origin)
	} else {
		if err := g.Fetch(ctx, path); err != nil {
			return nil, err
		}
		res, err = g.runner.Run(ctx, path, "git", "ls-remote", ".")
	}
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("git ls-remote exited %d: %s", res.ExitCode, res.Output)
	}

	var tags []string
	for _, line := range strings.Split(string(res.Output), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if ref, ok := strings.CutPrefix(fields[1], "refs/tags/"); ok {
			tags = append(tags, ref)
		}
	}
	return tags, nil
}
