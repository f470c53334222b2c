package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/justapithecus/terrafile/sync"
	"github.com/justapithecus/terrafile/terrafile"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"json lowercase", "json", FormatJSON, false},
		{"json uppercase", "JSON", FormatJSON, false},
		{"table", "table", FormatTable, false},
		{"yaml", "yaml", FormatYAML, false},
		{"empty", "", "", false},
		{"invalid", "xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func sampleRun() *sync.RunResult {
	return &sync.RunResult{
		Results: []sync.ModuleResult{
			{Module: "vpc", Status: sync.StatusFetched, Message: "fetched v3.0.0", Duration: 1200 * time.Millisecond},
			{Module: "shared", Status: sync.StatusCopied, Message: "copied from ./src/shared"},
			{Module: "cached", Status: sync.StatusSkipped, Message: "already at v1.0.0"},
			{Module: "broken", Status: sync.StatusFailed, Message: "clone failed"},
		},
		Duration: 2 * time.Second,
	}
}

func TestRenderRun_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatJSON, false, &buf)

	if err := r.RenderRun(sampleRun()); err != nil {
		t.Fatalf("RenderRun: %v", err)
	}

	var report map[string]any
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if report["fetched"] != float64(1) || report["failed"] != float64(1) {
		t.Errorf("summary counts wrong: %v", report)
	}
	modules := report["modules"].([]any)
	if len(modules) != 4 {
		t.Errorf("modules = %d, want 4", len(modules))
	}
}

func TestRenderRun_YAML(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatYAML, false, &buf)

	if err := r.RenderRun(sampleRun()); err != nil {
		t.Fatalf("RenderRun: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "module: vpc") || !strings.Contains(got, "status: fetched") {
		t.Errorf("YAML output missing expected content:\n%s", got)
	}
}

func TestRenderRun_Table(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, true, &buf)

	if err := r.RenderRun(sampleRun()); err != nil {
		t.Fatalf("RenderRun: %v", err)
	}
	got := buf.String()
	for _, want := range []string{"MODULE", "STATUS", "vpc", "fetched", "broken", "failed", "1 fetched, 1 copied, 1 skipped, 1 failed"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderRun_TableIncludesFatal(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, true, &buf)

	run := &sync.RunResult{Fatal: errors.New("registry lookup failed: status 500")}
	if err := r.RenderRun(run); err != nil {
		t.Fatalf("RenderRun: %v", err)
	}
	if !strings.Contains(buf.String(), "fatal: registry lookup failed") {
		t.Errorf("table output missing fatal line:\n%s", buf.String())
	}
}

func TestRenderModules_Table(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, true, &buf)

	modules := []terrafile.ModuleSpec{
		{Name: "vpc", Source: "terraform-aws-modules/vpc/aws", Version: "3.0.0"},
		{Name: "patched", Source: "https://example.com/x.git", Version: "v1", Patches: []string{"p"}, PatchFiles: []string{"f.patch"}},
	}
	if err := r.RenderModules(modules); err != nil {
		t.Fatalf("RenderModules: %v", err)
	}
	got := buf.String()
	for _, want := range []string{"SOURCE", "terraform-aws-modules/vpc/aws", "patched", "2"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderModules_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, true, &buf)

	if err := r.RenderModules(nil); err != nil {
		t.Fatalf("RenderModules: %v", err)
	}
	if !strings.Contains(buf.String(), "(no modules)") {
		t.Errorf("empty list output = %q", buf.String())
	}
}

func TestRenderModules_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatJSON, false, &buf)

	modules := []terrafile.ModuleSpec{{Name: "vpc", Source: "ns/vpc/aws", Version: "1.0.0"}}
	if err := r.RenderModules(modules); err != nil {
		t.Fatalf("RenderModules: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if rows[0]["module"] != "vpc" || rows[0]["source"] != "ns/vpc/aws" {
		t.Errorf("row = %v", rows[0])
	}
}
