package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/docfang/pkg/safeconv"
)

// Format is an output encoding for reports.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Write renders r to w in the given format.
func Write(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		encodeErr := enc.Encode(r)
		if encodeErr != nil {
			return fmt.Errorf("encode json report: %w", encodeErr)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		encodeErr := enc.Encode(r)
		if encodeErr != nil {
			return fmt.Errorf("encode yaml report: %w", encodeErr)
		}

		return enc.Close()
	case FormatText, "":
		return writeText(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

var actionColors = map[Action]*color.Color{
	ActionCreated:     color.New(color.FgGreen),
	ActionMerged:      color.New(color.FgCyan),
	ActionOverwritten: color.New(color.FgYellow),
	ActionConflict:    color.New(color.FgRed, color.Bold),
	ActionEmpty:       color.New(color.Faint),
	ActionSkipped:     color.New(color.Faint),
}

func colorAction(a Action) string {
	if c, ok := actionColors[a]; ok {
		return c.Sprint(string(a))
	}

	return string(a)
}

func writeText(w io.Writer, r *Report) error {
	title := "docfang convert: " + r.Root
	if r.DryRun {
		title += " (dry run)"
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(title)
	tbl.AppendHeader(table.Row{"Package", "Action", "Kind", "Size", "Target"})

	for _, res := range r.Results {
		pkg := res.Package
		if pkg == "" {
			pkg = res.Dir
		}

		tbl.AppendRow(table.Row{pkg, colorAction(res.Action), res.Kind, humanize.Bytes(safeconv.ClampToUint64(res.Bytes)), res.Target})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d", len(r.Results)), "", "", humanize.Bytes(safeconv.ClampToUint64(r.Summary.BytesRead)), ""})

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	_, err = fmt.Fprintln(w, summaryLine(r))
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	for _, res := range r.Results {
		if res.Message != "" {
			fmt.Fprintf(w, "%s: %s\n", res.Dir, res.Message)
		}

		if res.Diff != "" {
			fmt.Fprintf(w, "\n--- %s\n%s", res.Target, res.Diff)
		}
	}

	return nil
}

func summaryLine(r *Report) string {
	parts := make([]string, 0, len(Actions)+len(r.Summary.Kinds)+2)

	for _, action := range Actions {
		if n := r.Count(action); n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", action, n))
		}
	}

	for _, kind := range r.kindNames() {
		parts = append(parts, fmt.Sprintf("%s %d", kind, r.Summary.Kinds[kind]))
	}

	parts = append(parts, fmt.Sprintf("cache hits %d", r.Summary.CacheHits))

	return fmt.Sprintf("%d directories: %s", r.Summary.Directories, strings.Join(parts, ", "))
}
