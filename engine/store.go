package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spektr-org/scorecard/schema"
)

// ============================================================================
// RECORD STORE — Worksheet tables and the read-only session snapshot
// ============================================================================
// A Source hands back worksheets as string tables. Load() turns them into a
// Snapshot: one Entity per valid Overview row plus indicator rows per
// category. The snapshot is never mutated; Reload replaces it wholesale.
// ============================================================================

// Source is the spreadsheet collaborator.
type Source interface {
	// Name identifies the source in logs and archives.
	Name() string
	// Fetch returns one worksheet. A missing worksheet wraps ErrSheetNotFound.
	Fetch(ctx context.Context, sheet string) (Table, error)
}

// Table is one worksheet: a header row plus data rows.
// Rows may be shorter than Columns; missing trailing cells read as empty.
type Table struct {
	Sheet   string     `json:"sheet"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTable splits raw worksheet rows into header and data.
// Blank rows are skipped.
func NewTable(sheet string, raw [][]string) (Table, error) {
	if len(raw) == 0 {
		return Table{}, fmt.Errorf("%w: worksheet %s has no header row", ErrSchemaMismatch, sheet)
	}
	header := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		header[i] = strings.TrimSpace(h)
	}
	t := Table{Sheet: sheet, Columns: header}
	for _, row := range raw[1:] {
		if isBlankRow(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// StaticSource serves fixed tables. Used for fixtures and tests.
type StaticSource struct {
	name   string
	tables map[string]Table
}

// NewStaticSource builds a Source over in-memory tables.
func NewStaticSource(name string, tables ...Table) *StaticSource {
	s := &StaticSource{name: name, tables: make(map[string]Table, len(tables))}
	for _, t := range tables {
		s.tables[t.Sheet] = t
	}
	return s
}

func (s *StaticSource) Name() string { return s.name }

func (s *StaticSource) Fetch(ctx context.Context, sheet string) (Table, error) {
	if err := ctx.Err(); err != nil {
		return Table{}, err
	}
	t, ok := s.tables[sheet]
	if !ok {
		return Table{}, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}
	return t, nil
}

// ============================================================================
// ENTITIES
// ============================================================================

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both values are within geographic range.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Score is an achieved/max pair for one category.
type Score struct {
	Achieved float64 `json:"achieved"`
	Max      float64 `json:"max"`
}

// Entity is one Pourashava.
type Entity struct {
	Name       string           `json:"name"`
	Location   *Coordinates     `json:"location,omitempty"`
	TotalScore float64          `json:"totalScore"`
	Grade      schema.Grade     `json:"grade,omitempty"` // empty when the sheet has none
	Scores     map[string]Score `json:"scores"`
	Line       int              `json:"line"` // worksheet line, header is line 1
}

func (e Entity) clone() Entity {
	scores := make(map[string]Score, len(e.Scores))
	for k, v := range e.Scores {
		scores[k] = v
	}
	e.Scores = scores
	if e.Location != nil {
		loc := *e.Location
		e.Location = &loc
	}
	return e
}

// IndicatorRow holds one entity's indicator statuses for one category,
// in schema order.
type IndicatorRow struct {
	Entity   string   `json:"entity"`
	Category string   `json:"category"`
	Fields   []string `json:"fields"`
	Values   []string `json:"values"`

	byField map[string]string
}

// Value returns the status for one indicator field.
func (r IndicatorRow) Value(field string) (string, bool) {
	v, ok := r.byField[field]
	return v, ok
}

type indicatorSheet struct {
	rows map[string]IndicatorRow
}

// Snapshot is the immutable Record Store contents for one session.
type Snapshot struct {
	schema     schema.Schema
	source     string
	loadedAt   time.Time
	entities   []Entity
	index      map[string]int
	columns    map[string][]string
	indicators map[string]*indicatorSheet
	malformed  []MalformedRow
}

// SourceName identifies where the snapshot came from.
func (s *Snapshot) SourceName() string { return s.source }

// LoadedAt is when the load finished.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Len is the number of entities.
func (s *Snapshot) Len() int { return len(s.entities) }

// Schema is the category schema the snapshot was validated against.
func (s *Snapshot) Schema() schema.Schema { return s.schema }

// Entities returns all entities in worksheet order.
func (s *Snapshot) Entities() []Entity {
	out := make([]Entity, len(s.entities))
	for i, e := range s.entities {
		out[i] = e.clone()
	}
	return out
}

// Entity looks up an entity by exact name.
func (s *Snapshot) Entity(name string) (Entity, error) {
	i, ok := s.index[name]
	if !ok {
		return Entity{}, entityNotFound(name)
	}
	return s.entities[i].clone(), nil
}

// Has reports whether the snapshot holds the named entity.
func (s *Snapshot) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// EntityNames returns the distinct entity names sorted alphabetically,
// as offered by the entity selector.
func (s *Snapshot) EntityNames() []string {
	names := make([]string, 0, len(s.entities))
	for _, e := range s.entities {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// Columns returns the header of a loaded worksheet.
func (s *Snapshot) Columns(sheet string) []string {
	return append([]string(nil), s.columns[sheet]...)
}

// Malformed returns the rows excluded during load.
func (s *Snapshot) Malformed() []MalformedRow {
	return append([]MalformedRow(nil), s.malformed...)
}

// Indicators returns every indicator row of one category, sorted by entity
// name. Unknown categories and categories without indicators return nil.
func (s *Snapshot) Indicators(categoryID string) []IndicatorRow {
	sheet, ok := s.indicators[categoryID]
	if !ok {
		return nil
	}
	out := make([]IndicatorRow, 0, len(sheet.rows))
	for _, r := range sheet.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entity < out[j].Entity })
	return out
}

func (s *Snapshot) indicatorRow(categoryID, entity string) (IndicatorRow, bool) {
	sheet, ok := s.indicators[categoryID]
	if !ok {
		return IndicatorRow{}, false
	}
	row, ok := sheet.rows[entity]
	return row, ok
}
