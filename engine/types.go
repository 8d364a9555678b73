package engine

import (
	"github.com/spektr-org/scorecard/schema"
)

// ============================================================================
// SCORECARD ENGINE TYPES — Presentation boundary
// ============================================================================
// Everything a Presentation Adapter receives is defined here: a Page of
// Sections, each carrying exactly one chart, table, map layer or text.
// Raw worksheet rows never cross this boundary.
// ============================================================================

// ============================================================================
// AGGREGATION RESULTS
// ============================================================================

// RankedEntity is one row of the top-N ranking.
type RankedEntity struct {
	Rank       int          `json:"rank"` // 1-based
	Name       string       `json:"name"`
	TotalScore float64      `json:"totalScore"`
	Grade      schema.Grade `json:"grade,omitempty"`
}

// Comparison is an entity's achieved score against a category maximum.
type Comparison struct {
	Entity   string  `json:"entity"`
	Category string  `json:"category"`
	Achieved float64 `json:"achieved"`
	Max      float64 `json:"max"`
	OverMax  bool    `json:"overMax"` // achieved > max; flagged, never clamped
}

// EntityScore is one entity's raw score in one category.
type EntityScore struct {
	Entity   string  `json:"entity"`
	Achieved float64 `json:"achieved"`
	Max      float64 `json:"max"`
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group represents a grouped/aggregated result.
// Builders convert these into ChartConfig or TableData.
type Group struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Value float64    `json:"value"`
	Count int        `json:"count"`
	Color string     `json:"color,omitempty"`
	View  RecordView `json:"-"` // Sub-view for records in this group (zero-copy)
}

// ============================================================================
// PAGE — One rendered view
// ============================================================================

// Section types.
const (
	SectionChart = "chart"
	SectionTable = "table"
	SectionMap   = "map"
	SectionText  = "text"
)

// Page is the render-ready output for the active view.
type Page struct {
	View     View      `json:"view"`
	Title    string    `json:"title"`
	Entity   string    `json:"entity,omitempty"`
	Sections []Section `json:"sections"`
	Warnings []string  `json:"warnings,omitempty"`
}

// Section is one widget. When its aggregation fails, Error is set and no
// data is attached.
type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"` // "chart", "table", "map", "text"

	// At most one of these is populated based on Type:
	Chart *ChartConfig `json:"chart,omitempty"`
	Table *TableData   `json:"table,omitempty"`
	Map   *MapConfig   `json:"map,omitempty"`
	Text  string       `json:"text,omitempty"`

	Error string `json:"error,omitempty"`
}

// Failed reports whether the section was suppressed.
func (s Section) Failed() bool { return s.Error != "" }

// ============================================================================
// CHART TYPES
// ============================================================================

// Chart types.
const (
	ChartPie           = "pie"
	ChartBar           = "bar"
	ChartBarHorizontal = "bar_horizontal"
	ChartGroupedBar    = "grouped_bar"
)

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "grade", "status"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// MAP TYPES
// ============================================================================

// Marker is one entity on the map, colored by grade.
type Marker struct {
	Name       string       `json:"name"`
	Lat        float64      `json:"lat"`
	Lon        float64      `json:"lon"`
	Grade      schema.Grade `json:"grade,omitempty"`
	Color      string       `json:"color"`
	TotalScore float64      `json:"totalScore"`
	Tooltip    string       `json:"tooltip"`
	Popup      string       `json:"popup"`
}

// MapConfig is the map layer for the Overview.
type MapConfig struct {
	Center   Coordinates  `json:"center"`
	Zoom     int          `json:"zoom"`
	Markers  []Marker     `json:"markers"`
	Bounds   *MapBounds   `json:"bounds,omitempty"`   // nil without markers
	Centroid *Coordinates `json:"centroid,omitempty"` // nil without markers
	Legend   []LegendItem `json:"legend"`
}

// MapBounds is the bounding box of all markers.
type MapBounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// LegendItem maps a grade to its marker color.
type LegendItem struct {
	Grade schema.Grade `json:"grade"`
	Label string       `json:"label"`
	Color string       `json:"color"`
}
