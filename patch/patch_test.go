package patch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/justapithecus/terrafile/execx"
	"github.com/justapithecus/terrafile/terrafile"
)

func TestEntries_InlineBeforeFiles(t *testing.T) {
	root := t.TempDir()
	patchC := filepath.Join(root, "c.patch")
	if err := os.WriteFile(patchC, []byte("--- a\n+++ b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := Entries([]string{"diff A", "diff B"}, []string{"c.patch"}, root)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}

	// A(0), B(1), C(2): inline in declared order, then files, one counter.
	if entries[0].Index != 0 || entries[0].Inline != "diff A" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Index != 1 || entries[1].Inline != "diff B" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
	if entries[2].Index != 2 || entries[2].File != patchC {
		t.Errorf("entries[2] = %+v", entries[2])
	}

	if entries[2].Name() != "patch_2.patch" {
		t.Errorf("Name() = %q, want patch_2.patch", entries[2].Name())
	}
}

func TestEntries_MissingFileIsConfigError(t *testing.T) {
	_, err := Entries(nil, []string{"nope.patch"}, t.TempDir())
	if !errors.Is(err, terrafile.ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
}

func TestEntry_Validate(t *testing.T) {
	both := Entry{Index: 0, Inline: "x", File: "/y"}
	if err := both.validate(); !errors.Is(err, terrafile.ErrConfig) {
		t.Errorf("both origins: err = %v, want ErrConfig", err)
	}

	neither := Entry{Index: 1}
	if err := neither.validate(); !errors.Is(err, terrafile.ErrConfig) {
		t.Errorf("no origin: err = %v, want ErrConfig", err)
	}
}

func TestImport_StagesInOrderWithDeterministicNames(t *testing.T) {
	root := t.TempDir()
	filePatch := filepath.Join(root, "fix.patch")
	if err := os.WriteFile(filePatch, []byte("--- a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := Entries([]string{"inline one"}, []string{"fix.patch"}, root)
	if err != nil {
		t.Fatal(err)
	}

	fake := execx.NewFakeRunner()
	checkout := t.TempDir()
	engine := NewEngine(fake, checkout)

	if err := engine.Import(context.Background(), entries); err != nil {
		t.Fatalf("Import: %v", err)
	}

	calls := fake.Calls()
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2 quilt imports", len(calls))
	}
	for i, call := range calls {
		if call.Name != "quilt" || call.Args[0] != "import" {
			t.Fatalf("call %d = %+v, want quilt import", i, call)
		}
		if call.Dir != checkout {
			t.Errorf("call %d ran in %q, want checkout %q", i, call.Dir, checkout)
		}
	}
	if calls[0].Args[2] != "patch_0.patch" || calls[1].Args[2] != "patch_1.patch" {
		t.Errorf("staged names = %q, %q", calls[0].Args[2], calls[1].Args[2])
	}
	if calls[1].Args[3] != filePatch {
		t.Errorf("file entry imported from %q, want %q", calls[1].Args[3], filePatch)
	}
}

func TestImport_InlineContentGetsTrailingNewline(t *testing.T) {
	var stagedContent string
	// Capture the transient file's content before Import removes it.
	capture := &captureRunner{inner: execx.NewFakeRunner(), onImport: func(path string) {
		data, err := os.ReadFile(path)
		if err == nil {
			stagedContent = string(data)
		}
	}}

	engine := NewEngine(capture, t.TempDir())
	err := engine.Import(context.Background(), []Entry{{Index: 0, Inline: "--- a\n+++ b"}})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if !strings.HasSuffix(stagedContent, "b\n") {
		t.Errorf("staged content %q should end with a newline", stagedContent)
	}
}

func TestImport_RejectsInvalidEntryBeforeRunning(t *testing.T) {
	fake := execx.NewFakeRunner()
	engine := NewEngine(fake, t.TempDir())

	err := engine.Import(context.Background(), []Entry{{Index: 0, Inline: "x", File: "/y"}})
	if !errors.Is(err, terrafile.ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
	if len(fake.Calls()) != 0 {
		t.Error("no command may run for an invalid entry")
	}
}

func TestApplyAll_EmptySeriesIsZero(t *testing.T) {
	fake := execx.NewFakeRunner()
	engine := NewEngine(fake, t.TempDir())

	status, err := engine.ApplyAll(context.Background())
	if err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	if status != 0 {
		t.Errorf("status = %d, want 0 for empty series", status)
	}
	if len(fake.Calls()) != 0 {
		t.Error("empty series must not invoke quilt")
	}
}

func TestApplyAll_ReturnsPushStatus(t *testing.T) {
	fake := execx.NewFakeRunner()
	fake.Respond("quilt push", execx.Result{Output: []byte("hunk failed"), ExitCode: 1})
	engine := NewEngine(fake, t.TempDir())

	if err := engine.Import(context.Background(), []Entry{{Index: 0, Inline: "broken diff"}}); err != nil {
		t.Fatal(err)
	}

	status, err := engine.ApplyAll(context.Background())
	if err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	if status != 1 {
		t.Errorf("status = %d, want quilt's 1", status)
	}
}

func TestSeries_ListsStagedNames(t *testing.T) {
	fake := execx.NewFakeRunner()
	fake.Respond("quilt series", execx.Result{Output: []byte("patch_0.patch\npatch_1.patch\n")})
	engine := NewEngine(fake, t.TempDir())

	names, err := engine.Series(context.Background())
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if len(names) != 2 || names[0] != "patch_0.patch" {
		t.Errorf("names = %v", names)
	}
}

func TestInit_CreatesPatchesDirectory(t *testing.T) {
	fake := execx.NewFakeRunner()
	checkout := t.TempDir()
	engine := NewEngine(fake, checkout)

	if err := engine.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(checkout, "patches")); err != nil {
		t.Errorf("patches directory missing: %v", err)
	}
}

// captureRunner wraps a Runner and observes quilt import file arguments.
type captureRunner struct {
	inner    execx.Runner
	onImport func(path string)
}

func (c *captureRunner) Run(ctx context.Context, dir, name string, args ...string) (execx.Result, error) {
	if name == "quilt" && len(args) >= 4 && args[0] == "import" {
		c.onImport(args[3])
	}
	return c.inner.Run(ctx, dir, name, args...)
}
