package diagnostics

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderOptions control text rendering.
type RenderOptions struct {
	// Color enables coloured status symbols.
	Color bool
	// Width is the terminal width. Zero means unlimited.
	Width int
}

// fixedColumnsWidth approximates the symbol and name columns plus borders.
const fixedColumnsWidth = 32

var statusColors = map[Status]text.Colors{
	StatusOK:    {text.FgGreen},
	StatusWarn:  {text.FgYellow},
	StatusError: {text.FgRed},
	StatusInfo:  {text.FgCyan},
}

// RenderText writes one table per section followed by a summary line.
func RenderText(w io.Writer, sections []Section, opts RenderOptions) error {
	for _, s := range sections {
		if _, err := fmt.Fprintln(w, renderSection(s, opts)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, summaryLine(sections))
	return err
}

func renderSection(s Section, opts RenderOptions) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(s.Title)
	tw.AppendHeader(table.Row{"", "Check", "Detail"})

	for _, r := range s.Results {
		symbol := r.Status.Symbol()
		if opts.Color {
			symbol = statusColors[r.Status].Sprint(symbol)
		}
		tw.AppendRow(table.Row{symbol, r.Name, r.Detail})
	}

	detail := table.ColumnConfig{Number: 3, AlignHeader: text.AlignLeft}
	if opts.Width > fixedColumnsWidth+20 {
		detail.WidthMax = opts.Width - fixedColumnsWidth
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignCenter},
		{Number: 2, AlignHeader: text.AlignLeft},
		detail,
	})
	return tw.Render()
}

func summaryLine(sections []Section) string {
	var ok, warn, fail int
	for _, s := range sections {
		for _, r := range s.Results {
			switch r.Status {
			case StatusOK:
				ok++
			case StatusWarn:
				warn++
			case StatusError:
				fail++
			}
		}
	}
	return fmt.Sprintf("Summary: %d ok, %d warnings, %d errors", ok, warn, fail)
}

// RenderJSON writes v as indented JSON.
func RenderJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
