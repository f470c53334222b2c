package terrafile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Discover resolves a CLI path argument to a Terrafile location.
//
// A file path is used as-is. A directory is searched for a file named
// "Terrafile", walking up parent directories until the filesystem root.
// An empty path means the current working directory.
func Discover(path string) (string, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("%w: cannot determine working directory: %v", ErrConfig, err)
		}
		path = cwd
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
	}

	if !info.IsDir() {
		return filepath.Abs(path)
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
	}
	for {
		candidate := filepath.Join(dir, DefaultFilename)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no %s found in %s or any parent directory", ErrConfig, DefaultFilename, path)
		}
		dir = parent
	}
}

// Load reads and parses the Terrafile at path. Environment variable
// references (${VAR}, ${VAR:-default}) are expanded before parsing.
func Load(path string) (*Terrafile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s: %v", ErrConfig, path, err)
	}

	expanded := ExpandEnv(string(data))

	var doc map[string]yaml.Node
	if err := yaml.Unmarshal([]byte(expanded), &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid YAML in %s: %v", ErrConfig, path, err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrConfig, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
	}

	tf := &Terrafile{
		Path: abs,
		Dir:  filepath.Dir(abs),
	}

	for name, node := range doc {
		if name == SetupKey {
			if err := node.Decode(&tf.Setup); err != nil {
				return nil, fmt.Errorf("%w: invalid setup block in %s: %v", ErrConfig, path, err)
			}
			continue
		}
		var spec ModuleSpec
		if err := node.Decode(&spec); err != nil {
			return nil, fmt.Errorf("%w: invalid module %q in %s: %v", ErrConfig, name, path, err)
		}
		spec.Name = name
		tf.Modules = append(tf.Modules, spec)
	}

	tf.sortModules()
	if err := tf.validate(); err != nil {
		return nil, err
	}
	return tf, nil
}

// DiscoverAndLoad combines Discover and Load for the common CLI path.
func DiscoverAndLoad(path string) (*Terrafile, error) {
	resolved, err := Discover(path)
	if err != nil {
		return nil, err
	}
	return Load(resolved)
}
