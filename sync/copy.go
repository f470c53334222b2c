package sync

import (
	"fmt"
	"os"
	"path/filepath"
)

// copyTree replaces target with a recursive copy of source. Any existing
// target directory is removed first so the copy is a faithful mirror.
func copyTree(source, target string) error {
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", source)
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("remove existing target: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create target parent: %w", err)
	}
	if err := os.CopyFS(target, os.DirFS(source)); err != nil {
		return fmt.Errorf("copy tree: %w", err)
	}
	return nil
}
