package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/scorecard/schema"
)

// ============================================================================
// LOAD — Source → Snapshot
// ============================================================================
// Pipeline:
//   1. Fetch every worksheet the schema names (bounded, concurrent)
//   2. Validate columns against the schema (fail fast)
//   3. Parse Overview rows into entities, excluding malformed rows
//   4. Parse indicator worksheets into per-category rows
// ============================================================================

// Loader produces a fresh snapshot. Sessions call it on start and on Reload.
type Loader func(ctx context.Context) (*Snapshot, error)

// NewLoader binds a source, schema and options into a Loader.
func NewLoader(src Source, sch schema.Schema, opts ...LoadOption) Loader {
	return func(ctx context.Context) (*Snapshot, error) {
		return Load(ctx, src, sch, opts...)
	}
}

// Load reads the whole spreadsheet and returns a read-only snapshot.
func Load(ctx context.Context, src Source, sch schema.Schema, opts ...LoadOption) (*Snapshot, error) {
	cfg := applyLoadOptions(opts)

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	started := time.Now()
	log.Printf("📥 Scorecard: loading %d worksheets from %s", len(sch.Sheets()), src.Name())

	tables, err := fetchAll(ctx, src, sch.Sheets(), cfg.Concurrency)
	if err != nil {
		return nil, err
	}

	overview := tables[schema.OverviewSheet]
	sheetColumns := make(map[string][]string, len(tables))
	for name, t := range tables {
		sheetColumns[name] = t.Columns
	}
	if err := sch.Validate(overview.Columns, sheetColumns); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		schema:     sch,
		source:     src.Name(),
		index:      make(map[string]int),
		columns:    sheetColumns,
		indicators: make(map[string]*indicatorSheet),
	}

	parseOverview(snap, overview, sch, cfg)
	for _, c := range sch.Categories() {
		if len(c.Indicators) == 0 {
			continue
		}
		parseIndicators(snap, tables[c.Sheet()], c, cfg)
	}

	snap.loadedAt = time.Now()
	for _, m := range snap.malformed {
		log.Printf("⚠️ Scorecard: excluded %s", m)
	}
	log.Printf("📊 Scorecard: loaded %d entities (%d rows excluded) in %s",
		len(snap.entities), len(snap.malformed), time.Since(started).Round(time.Millisecond))

	return snap, nil
}

// fetchAll pulls worksheets concurrently. A missing worksheet is a schema
// mismatch; anything else is the source being unavailable.
func fetchAll(ctx context.Context, src Source, sheets []string, limit int) (map[string]Table, error) {
	results := make([]Table, len(sheets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, sheet := range sheets {
		g.Go(func() error {
			t, err := src.Fetch(gctx, sheet)
			if err != nil {
				return classifyFetchError(sheet, err)
			}
			t.Sheet = sheet
			results[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tables := make(map[string]Table, len(sheets))
	for _, t := range results {
		tables[t.Sheet] = t
	}
	return tables, nil
}

func classifyFetchError(sheet string, err error) error {
	switch {
	case errors.Is(err, ErrSchemaMismatch):
		return err
	case errors.Is(err, ErrSheetNotFound):
		return fmt.Errorf("%w: worksheet %s: %v", ErrSchemaMismatch, sheet, err)
	default:
		return fmt.Errorf("%w: worksheet %s: %v", ErrSourceUnavailable, sheet, err)
	}
}

// ============================================================================
// OVERVIEW
// ============================================================================

func parseOverview(snap *Snapshot, t Table, sch schema.Schema, cfg *loadConfig) {
	idx := columnIndex(t.Columns)
	categories := sch.Categories()

	for i, row := range t.Rows {
		line := i + 2
		r := rowReader{row: row, idx: idx}

		name := r.text(schema.FieldName)
		reject := func(reason string) {
			snap.malformed = append(snap.malformed, MalformedRow{
				Sheet: t.Sheet, Line: line, Entity: name, Reason: reason,
			})
		}

		if name == "" {
			reject("missing " + schema.FieldName)
			continue
		}
		if _, dup := snap.index[name]; dup {
			reject("duplicate entity name")
			continue
		}

		total, err := r.number(schema.FieldTotalScore, cfg.ZeroFill)
		if err != nil {
			reject(err.Error())
			continue
		}

		var grade schema.Grade
		if raw := r.text(schema.FieldGrade); raw != "" {
			g, ok := schema.ParseGrade(raw)
			if !ok {
				reject(fmt.Sprintf("unknown grade %q", raw))
				continue
			}
			grade = g
		}

		loc, err := r.coordinates()
		if err != nil {
			reject(err.Error())
			continue
		}

		scores := make(map[string]Score, len(categories))
		var scoreErr error
		for _, c := range categories {
			achieved, err := r.number(c.ScoreField, cfg.ZeroFill)
			if err != nil {
				scoreErr = err
				break
			}
			max, err := r.number(c.MaxField, cfg.ZeroFill)
			if err != nil {
				scoreErr = err
				break
			}
			scores[c.ID] = Score{Achieved: achieved, Max: max}
		}
		if scoreErr != nil {
			reject(scoreErr.Error())
			continue
		}

		snap.index[name] = len(snap.entities)
		snap.entities = append(snap.entities, Entity{
			Name:       name,
			Location:   loc,
			TotalScore: total,
			Grade:      grade,
			Scores:     scores,
			Line:       line,
		})
	}
}

// ============================================================================
// INDICATORS
// ============================================================================

func parseIndicators(snap *Snapshot, t Table, c schema.Category, cfg *loadConfig) {
	idx := columnIndex(t.Columns)
	sheet := &indicatorSheet{rows: make(map[string]IndicatorRow)}

rows:
	for i, row := range t.Rows {
		line := i + 2
		r := rowReader{row: row, idx: idx}

		name := r.text(schema.FieldName)
		if name == "" {
			snap.malformed = append(snap.malformed, MalformedRow{
				Sheet: t.Sheet, Line: line, Reason: "missing " + schema.FieldName,
			})
			continue
		}
		if _, dup := sheet.rows[name]; dup {
			snap.malformed = append(snap.malformed, MalformedRow{
				Sheet: t.Sheet, Line: line, Entity: name, Reason: "duplicate entity name",
			})
			continue
		}

		ir := IndicatorRow{
			Entity:   name,
			Category: c.ID,
			Fields:   c.Indicators,
			Values:   make([]string, 0, len(c.Indicators)),
			byField:  make(map[string]string, len(c.Indicators)),
		}
		for _, field := range c.Indicators {
			v := r.text(field)
			if v == "" {
				if !cfg.ZeroFill {
					snap.malformed = append(snap.malformed, MalformedRow{
						Sheet: t.Sheet, Line: line, Entity: name, Reason: "missing " + field,
					})
					continue rows
				}
				v = "0"
			}
			ir.Values = append(ir.Values, v)
			ir.byField[field] = v
		}
		sheet.rows[name] = ir
	}

	snap.indicators[c.ID] = sheet
}

// ============================================================================
// ROW HELPERS
// ============================================================================

func columnIndex(columns []string) map[string]int {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, seen := idx[c]; !seen {
			idx[c] = i
		}
	}
	return idx
}

type rowReader struct {
	row []string
	idx map[string]int
}

func (r rowReader) text(field string) string {
	i, ok := r.idx[field]
	if !ok || i >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(r.row[i])
}

func (r rowReader) number(field string, zeroFill bool) (float64, error) {
	raw := r.text(field)
	if raw == "" {
		if zeroFill {
			return 0, nil
		}
		return 0, fmt.Errorf("missing %s", field)
	}
	v, err := parseNumber(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", field, raw)
	}
	return v, nil
}

// parseNumber accepts finite numbers only; NaN and Inf have no rank.
func parseNumber(raw string) (float64, error) {
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return v, nil
}

// coordinates returns nil when both cells are empty.
func (r rowReader) coordinates() (*Coordinates, error) {
	latRaw, lonRaw := r.text(schema.FieldLat), r.text(schema.FieldLon)
	if latRaw == "" && lonRaw == "" {
		return nil, nil
	}
	if latRaw == "" || lonRaw == "" {
		return nil, fmt.Errorf("incomplete coordinates")
	}
	lat, err := parseNumber(latRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", schema.FieldLat, latRaw)
	}
	lon, err := parseNumber(lonRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", schema.FieldLon, lonRaw)
	}
	c := Coordinates{Lat: lat, Lon: lon}
	if !c.Valid() {
		return nil, fmt.Errorf("coordinates out of range (%g, %g)", lat, lon)
	}
	return &c, nil
}
