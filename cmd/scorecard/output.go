package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spektr-org/scorecard/engine"
)

// ============================================================================
// CSV OUTPUT — Every chart and table of a page, Sheets-ready
// ============================================================================
// Sections are written one after another, each headed by its title and
// separated by a blank row. Text sections and failed sections are skipped.
// ============================================================================

func writeCSV(w io.Writer, page *engine.Page) {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	written := 0
	for _, s := range page.Sections {
		if s.Failed() {
			continue
		}
		var ok bool
		switch {
		case s.Chart != nil:
			ok = len(s.Chart.Series) > 0
			if ok {
				writeSectionHeader(cw, written, s.Title)
				writeChartCSV(cw, s.Chart)
			}
		case s.Table != nil:
			ok = len(s.Table.Columns) > 0
			if ok {
				writeSectionHeader(cw, written, s.Title)
				writeTableCSV(cw, s.Table)
			}
		case s.Map != nil:
			ok = true
			writeSectionHeader(cw, written, s.Title)
			writeMapCSV(cw, s.Map)
		}
		if ok {
			written++
		}
	}

	if written == 0 {
		cw.Write([]string{"Result", "No data"})
	}
}

func writeSectionHeader(cw *csv.Writer, index int, title string) {
	if index > 0 {
		cw.Write([]string{})
	}
	cw.Write([]string{title})
}

func writeChartCSV(cw *csv.Writer, chart *engine.ChartConfig) {
	xLabel := chart.XAxis
	yLabel := chart.YAxis
	if xLabel == "" {
		xLabel = "Label"
	}
	if yLabel == "" {
		yLabel = "Value"
	}

	// Single series → two columns
	if len(chart.Series) == 1 {
		cw.Write([]string{xLabel, yLabel})
		for _, d := range chart.Series[0].Data {
			cw.Write([]string{d.Label, engine.FormatScore(d.Value)})
		}
		return
	}

	// Multi-series → label + one column per series
	headers := []string{xLabel}
	for _, s := range chart.Series {
		headers = append(headers, s.Name)
	}
	cw.Write(headers)

	for i, d := range chart.Series[0].Data {
		row := []string{d.Label}
		for _, s := range chart.Series {
			if i < len(s.Data) {
				row = append(row, engine.FormatScore(s.Data[i].Value))
			} else {
				row = append(row, "")
			}
		}
		cw.Write(row)
	}
}

func writeTableCSV(cw *csv.Writer, table *engine.TableData) {
	headers := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		headers[i] = c.Label
	}
	cw.Write(headers)
	for _, row := range table.Rows {
		cw.Write(row)
	}
}

func writeMapCSV(cw *csv.Writer, m *engine.MapConfig) {
	cw.Write([]string{"Pourashava", "Lat", "Lon", "Grade", "Total Score"})
	for _, mk := range m.Markers {
		cw.Write([]string{
			mk.Name,
			fmt.Sprintf("%.4f", mk.Lat),
			fmt.Sprintf("%.4f", mk.Lon),
			string(mk.Grade),
			engine.FormatScore(mk.TotalScore),
		})
	}
}

// ============================================================================
// TEXT OUTPUT
// ============================================================================

func writeText(w io.Writer, page *engine.Page) {
	fmt.Fprintln(w, engine.DashboardTitle)
	fmt.Fprintf(w, "== %s ==\n", page.Title)

	for _, s := range page.Sections {
		fmt.Fprintf(w, "\n%s\n", s.Title)
		switch {
		case s.Failed():
			fmt.Fprintf(w, "  (%s)\n", s.Error)
		case s.Text != "":
			fmt.Fprintf(w, "  %s\n", s.Text)
		case s.Chart != nil:
			for _, series := range s.Chart.Series {
				parts := make([]string, 0, len(series.Data))
				for _, d := range series.Data {
					parts = append(parts, fmt.Sprintf("%s=%s", d.Label, engine.FormatScore(d.Value)))
				}
				fmt.Fprintf(w, "  %s: %s\n", series.Name, strings.Join(parts, ", "))
			}
		case s.Table != nil:
			headers := make([]string, len(s.Table.Columns))
			for i, c := range s.Table.Columns {
				headers[i] = c.Label
			}
			fmt.Fprintf(w, "  %s\n", strings.Join(headers, " | "))
			for _, row := range s.Table.Rows {
				fmt.Fprintf(w, "  %s\n", strings.Join(row, " | "))
			}
			if s.Table.Summary != nil {
				fmt.Fprintf(w, "  %s\n", s.Table.Summary.Label)
			}
		case s.Map != nil:
			fmt.Fprintf(w, "  %d markers\n", len(s.Map.Markers))
			for _, mk := range s.Map.Markers {
				fmt.Fprintf(w, "  %s (%.4f, %.4f) %s\n", mk.Name, mk.Lat, mk.Lon, mk.Grade)
			}
		}
	}

	for _, warning := range page.Warnings {
		fmt.Fprintf(w, "\nWarning: %s\n", warning)
	}
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v interface{}, format string) {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}

	if err != nil {
		fatalf("Failed to marshal output: %v", err)
	}
	fmt.Fprintln(w, string(out))
}
