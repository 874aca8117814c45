package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Go-Global/storygraph-v0/pkg/constraints"
	"github.com/Go-Global/storygraph-v0/pkg/graphsync"
	"github.com/Go-Global/storygraph-v0/pkg/model"
	"github.com/Go-Global/storygraph-v0/pkg/storygraph"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// printSummary reports node counts per type, artifact locations and the
// upload outcome
func printSummary(w io.Writer, g *storygraph.StoryGraph, locations []string, report *graphsync.GraphReport) {
	fmt.Fprintln(w, titleStyle.Render(g.Title))

	counts := make(map[model.NodeType]int)
	for _, n := range g.Nodes() {
		counts[n.Type]++
	}
	t := newTable("type", "count")
	for _, typ := range model.NodeTypes {
		if counts[typ] > 0 {
			t.Row(string(typ), fmt.Sprint(counts[typ]))
		}
	}
	t.Row("edges", fmt.Sprint(g.EdgeCount()))
	fmt.Fprintln(w, t.Render())

	for _, loc := range locations {
		fmt.Fprintf(w, "%s %s\n", successStyle.Render("wrote"), loc)
	}

	if report != nil {
		rt := newTable("", "total", "inserted", "skipped", "failed")
		for _, r := range []struct {
			name string
			r    graphsync.UploadReport
		}{{"nodes", report.Nodes}, {"edges", report.Edges}} {
			rt.Row(r.name, fmt.Sprint(r.r.Total), fmt.Sprint(r.r.Inserted), fmt.Sprint(r.r.Skipped), fmt.Sprint(r.r.Failed))
		}
		fmt.Fprintln(w, rt.Render())
	}
}

// printRecords renders query rows as a table. Nodes print as type:key and
// relationships as their type.
func printRecords(w io.Writer, records []graphsync.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("(no rows)"))
		return
	}
	t := newTable(records[0].Keys...)
	for _, rec := range records {
		row := make([]string, len(rec.Values))
		for i, v := range rec.Values {
			row[i] = formatValue(v)
		}
		t.Row(row...)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d row(s)", len(records))))
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case graphsync.NodeRecord:
		key, _ := x.Props[model.PropKey].(string)
		return strings.Join(x.Labels, ":") + ":" + key
	case graphsync.RelationshipRecord:
		return "[" + x.Type + "]"
	case time.Time:
		return x.Format(time.RFC3339)
	case string:
		return x
	case []any:
		parts := make([]string, len(x))
		for i, el := range x {
			parts[i] = formatValue(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := slices.Sorted(maps.Keys(x))
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + formatValue(x[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprint(v)
}

func printViolations(w io.Writer, result *constraints.ValidationResult) {
	if result.Valid {
		fmt.Fprintln(w, successStyle.Render("graph is valid"))
		return
	}
	t := newTable("severity", "constraint", "message")
	for _, v := range result.Violations {
		sev := v.Severity.String()
		switch v.Severity {
		case constraints.Error:
			sev = errorStyle.Render(sev)
		case constraints.Warning:
			sev = warnStyle.Render(sev)
		}
		t.Row(sev, v.Constraint, v.Message)
	}
	fmt.Fprintln(w, t.Render())
}
