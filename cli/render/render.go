// Package render provides centralized output rendering for the terrafile CLI.
//
// Format selection rules:
//   - If output is a TTY, default to table
//   - If output is not a TTY, default to json
//   - --format always overrides defaults
//   - Invalid formats are errors
//
// Color applies to table output only and is disabled by --no-color.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/justapithecus/terrafile/sync"
	"github.com/justapithecus/terrafile/terrafile"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil // Let caller decide default
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer handles output formatting.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer
}

// NewRenderer creates a renderer from CLI context, applying the TTY
// default when no format is requested.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}
	if format == "" {
		if isTTY(os.Stdout) {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}
	return &Renderer{
		format:  format,
		noColor: c.Bool("no-color"),
		out:     os.Stdout,
	}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{format: format, noColor: noColor, out: out}
}

// moduleRow is the serializable per-module report row.
type moduleRow struct {
	Module     string `json:"module" yaml:"module"`
	Status     string `json:"status" yaml:"status"`
	Message    string `json:"message,omitempty" yaml:"message,omitempty"`
	DurationMS int64  `json:"duration_ms" yaml:"duration_ms"`
}

// runReport is the serializable whole-run report.
type runReport struct {
	Modules    []moduleRow `json:"modules" yaml:"modules"`
	Fetched    int         `json:"fetched" yaml:"fetched"`
	Copied     int         `json:"copied" yaml:"copied"`
	Skipped    int         `json:"skipped" yaml:"skipped"`
	Failed     int         `json:"failed" yaml:"failed"`
	Aborted    int         `json:"aborted" yaml:"aborted"`
	Fatal      string      `json:"fatal,omitempty" yaml:"fatal,omitempty"`
	DurationMS int64       `json:"duration_ms" yaml:"duration_ms"`
}

// RenderRun prints a synchronization run's outcome.
func (r *Renderer) RenderRun(run *sync.RunResult) error {
	report := buildRunReport(run)
	switch r.format {
	case FormatJSON:
		return r.renderJSON(report)
	case FormatYAML:
		return r.renderYAML(report)
	case FormatTable:
		return r.renderRunTable(report)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// moduleListRow is the serializable row for the list command.
type moduleListRow struct {
	Module  string `json:"module" yaml:"module"`
	Source  string `json:"source" yaml:"source"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Patches int    `json:"patches" yaml:"patches"`
}

// RenderModules prints the declared modules without syncing them.
func (r *Renderer) RenderModules(modules []terrafile.ModuleSpec) error {
	rows := make([]moduleListRow, 0, len(modules))
	for _, mod := range modules {
		rows = append(rows, moduleListRow{
			Module:  mod.Name,
			Source:  mod.Source,
			Version: mod.Version,
			Patches: len(mod.Patches) + len(mod.PatchFiles),
		})
	}
	switch r.format {
	case FormatJSON:
		return r.renderJSON(rows)
	case FormatYAML:
		return r.renderYAML(rows)
	case FormatTable:
		return r.renderModulesTable(rows)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

func buildRunReport(run *sync.RunResult) runReport {
	report := runReport{
		Modules:    make([]moduleRow, 0, len(run.Results)),
		DurationMS: run.Duration.Milliseconds(),
	}
	for _, res := range run.Results {
		report.Modules = append(report.Modules, moduleRow{
			Module:     res.Module,
			Status:     string(res.Status),
			Message:    res.Message,
			DurationMS: res.Duration.Milliseconds(),
		})
	}
	counts := run.Counts()
	report.Fetched = counts[sync.StatusFetched]
	report.Copied = counts[sync.StatusCopied]
	report.Skipped = counts[sync.StatusSkipped]
	report.Failed = counts[sync.StatusFailed]
	report.Aborted = counts[sync.StatusAborted]
	if run.Fatal != nil {
		report.Fatal = run.Fatal.Error()
	}
	return report
}

func (r *Renderer) renderJSON(data any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (r *Renderer) renderYAML(data any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(data)
}

func (r *Renderer) renderRunTable(report runReport) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, r.styled(headerStyle, "MODULE")+"\t"+r.styled(headerStyle, "STATUS")+"\t"+r.styled(headerStyle, "MESSAGE"))
	for _, row := range report.Modules {
		status := r.styled(statusStyle(row.Status), row.Status)
		fmt.Fprintf(w, "%s\t%s\t%s\n", row.Module, status, row.Message)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	summary := fmt.Sprintf("%d fetched, %d copied, %d skipped, %d failed",
		report.Fetched, report.Copied, report.Skipped, report.Failed)
	if report.Aborted > 0 {
		summary += fmt.Sprintf(", %d aborted", report.Aborted)
	}
	fmt.Fprintf(r.out, "\n%s (%dms)\n", summary, report.DurationMS)
	if report.Fatal != "" {
		fmt.Fprintln(r.out, r.styled(errorStyle, "fatal: "+report.Fatal))
	}
	return nil
}

func (r *Renderer) renderModulesTable(rows []moduleListRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(r.out, "(no modules)")
		return nil
	}
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, r.styled(headerStyle, "MODULE")+"\t"+r.styled(headerStyle, "SOURCE")+"\t"+r.styled(headerStyle, "VERSION")+"\t"+r.styled(headerStyle, "PATCHES"))
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", row.Module, row.Source, row.Version, row.Patches)
	}
	return w.Flush()
}

// styled applies a style unless color is disabled.
func (r *Renderer) styled(style lipgloss.Style, s string) string {
	if r.noColor {
		return s
	}
	return style.Render(s)
}

// isTTY returns true if the writer is a TTY.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
