package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/terrafile/source"
	"github.com/justapithecus/terrafile/sync"
	"github.com/justapithecus/terrafile/terrafile"
)

func newTestApp() *cli.App {
	return &cli.App{
		Name:           "terrafile",
		DefaultCommand: "sync",
		ExitErrHandler: func(*cli.Context, error) {}, // keep os.Exit out of tests
		Commands: []*cli.Command{
			SyncCommand(),
			ListCommand(),
			VersionCommand("test"),
		},
	}
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var coder cli.ExitCoder
	if !errors.As(err, &coder) {
		t.Fatalf("error is not an ExitCoder: %v", err)
	}
	return coder.ExitCode()
}

func writeTerrafile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, terrafile.DefaultFilename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSync_LocalModuleSucceeds(t *testing.T) {
	path := writeTerrafile(t, "shared:\n  source: \"./src/shared\"\n")
	src := filepath.Join(filepath.Dir(path), "src", "shared")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "main.tf"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := newTestApp().Run([]string{"terrafile", "sync", "--quiet", path})
	if code := exitCode(t, err); code != exitSuccess {
		t.Fatalf("exit code = %d, want %d (err: %v)", code, exitSuccess, err)
	}
	if _, statErr := os.Stat(filepath.Join(filepath.Dir(path), "shared", "main.tf")); statErr != nil {
		t.Errorf("module not copied: %v", statErr)
	}
}

func TestSync_MissingTerrafileIsConfigError(t *testing.T) {
	err := newTestApp().Run([]string{"terrafile", "sync", "--quiet", filepath.Join(t.TempDir(), "nope")})
	if code := exitCode(t, err); code != exitConfigError {
		t.Fatalf("exit code = %d, want %d", code, exitConfigError)
	}
}

func TestSync_EmptyTerrafileIsConfigError(t *testing.T) {
	path := writeTerrafile(t, "")
	err := newTestApp().Run([]string{"terrafile", "sync", "--quiet", path})
	if code := exitCode(t, err); code != exitConfigError {
		t.Fatalf("exit code = %d, want %d", code, exitConfigError)
	}
}

func TestSync_IsDefaultCommand(t *testing.T) {
	path := writeTerrafile(t, "shared:\n  source: \"./src\"\n")
	if err := os.MkdirAll(filepath.Join(filepath.Dir(path), "src"), 0o755); err != nil {
		t.Fatal(err)
	}

	err := newTestApp().Run([]string{"terrafile", path})
	if code := exitCode(t, err); code != exitSuccess {
		t.Fatalf("exit code = %d, want %d (err: %v)", code, exitSuccess, err)
	}
}

func TestList_DoesNotTouchModules(t *testing.T) {
	path := writeTerrafile(t, "vpc:\n  source: \"https://example.com/vpc.git\"\n  version: \"v1\"\n")
	err := newTestApp().Run([]string{"terrafile", "list", "--format", "json", path})
	if code := exitCode(t, err); code != exitSuccess {
		t.Fatalf("exit code = %d, want %d (err: %v)", code, exitSuccess, err)
	}
	if _, statErr := os.Stat(filepath.Join(filepath.Dir(path), "vpc")); !os.IsNotExist(statErr) {
		t.Error("list must not create module checkouts")
	}
}

func TestRunExitCode(t *testing.T) {
	tests := []struct {
		name string
		run  *sync.RunResult
		want int
	}{
		{"success", &sync.RunResult{Results: []sync.ModuleResult{{Status: sync.StatusFetched}}}, exitSuccess},
		{"module failure", &sync.RunResult{Results: []sync.ModuleResult{{Status: sync.StatusFailed}}}, exitModuleFailure},
		{"config fatal", &sync.RunResult{Fatal: terrafile.ErrConfig}, exitConfigError},
		{"registry fatal", &sync.RunResult{Fatal: source.ErrRegistryLookup}, exitRegistryError},
		{"other fatal", &sync.RunResult{Fatal: errors.New("boom")}, exitModuleFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runExitCode(tt.run); got != tt.want {
				t.Errorf("runExitCode = %d, want %d", got, tt.want)
			}
		})
	}
}
