package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/nickyhof/CommitKV/ps"
	"github.com/nickyhof/CommitKV/wire"
)

// SimpleTable provides basic table formatting
type SimpleTable struct {
	writer  io.Writer
	headers []string
	rows    [][]string
}

// NewTable creates a new table writer
func NewTable(w io.Writer) *SimpleTable {
	return &SimpleTable{
		writer: w,
		rows:   make([][]string, 0),
	}
}

func (t *SimpleTable) Header(headers []string) {
	t.headers = headers
}

func (t *SimpleTable) Row(row []string) {
	t.rows = append(t.rows, row)
}

// Render outputs the formatted table
func (t *SimpleTable) Render() {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return
	}

	colWidths := t.calculateWidths()
	separator := t.buildSeparator(colWidths)

	fmt.Fprintln(t.writer, separator)
	if len(t.headers) > 0 {
		fmt.Fprintln(t.writer, t.formatRow(t.headers, colWidths))
		fmt.Fprintln(t.writer, separator)
	}
	for _, row := range t.rows {
		fmt.Fprintln(t.writer, t.formatRow(row, colWidths))
	}
	fmt.Fprintln(t.writer, separator)
}

func (t *SimpleTable) calculateWidths() []int {
	numCols := len(t.headers)
	for _, row := range t.rows {
		if len(row) > numCols {
			numCols = len(row)
		}
	}

	widths := make([]int, numCols)
	for i, h := range t.headers {
		widths[i] = max(widths[i], len(h))
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}
	for i := range widths {
		widths[i] = max(widths[i], 1)
	}
	return widths
}

func (t *SimpleTable) buildSeparator(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w+2)
	}
	return "+" + strings.Join(parts, "+") + "+"
}

func (t *SimpleTable) formatRow(row []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		parts[i] = " " + cell + strings.Repeat(" ", w-len(cell)+1)
	}
	return "|" + strings.Join(parts, "|") + "|"
}

// formatDuration formats a duration in human-readable form
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return "<1ms"
	case d < 10*time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < 10*time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm%ds", mins, secs)
}

// formatValue renders a decoded JSON value for a table cell.
func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// renderResponse prints a successful response. Lists become a one-column
// table, objects a field/value table, anything else a single line.
func renderResponse(w io.Writer, resp wire.Response, elapsed time.Duration) {
	switch body := resp.Body.(type) {
	case nil:
		fmt.Fprintf(w, "%s✓ OK (%s)%s\n", SuccessColor, formatDuration(elapsed), ResetColor)
		return

	case []string:
		if len(body) == 0 {
			fmt.Fprintln(w, "(no keys)")
			break
		}
		table := NewTable(w)
		table.Header([]string{"key"})
		for _, key := range body {
			table.Row([]string{key})
		}
		table.Render()
		fmt.Fprintf(w, "%d keys (%s)\n", len(body), formatDuration(elapsed))
		return

	case map[string]any:
		fields := make([]string, 0, len(body))
		for field := range body {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		table := NewTable(w)
		table.Header([]string{"field", "value"})
		for _, field := range fields {
			table.Row([]string{field, formatValue(body[field])})
		}
		table.Render()

	default:
		fmt.Fprintln(w, formatValue(body))
	}
	fmt.Fprintf(w, "(%s)\n", formatDuration(elapsed))
}

func renderError(w io.Writer, werr *wire.Error) {
	fmt.Fprintf(w, "%s✗ %s: %s%s\n", ErrorColor, werr.Status, werr.Message, ResetColor)
	if werr.QueryMessage != nil {
		fmt.Fprintf(w, "  in: %s\n", *werr.QueryMessage)
	}
}

func renderHistory(w io.Writer, history []ps.Transaction) {
	if len(history) == 0 {
		fmt.Fprintln(w, "(no commits)")
		return
	}

	table := NewTable(w)
	table.Header([]string{"commit", "when", "author", "message"})
	for _, txn := range history {
		table.Row([]string{
			txn.Id[:min(len(txn.Id), 8)],
			txn.When.Format(time.DateTime),
			txn.Author,
			strings.TrimSpace(txn.Message),
		})
	}
	table.Render()
}
