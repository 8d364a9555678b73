package engine

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/spektr-org/scorecard/schema"
)

// ============================================================================
// AGGREGATORS — Grade counts, rankings and category comparisons
// ============================================================================
// All reads go through RecordView. Every call computes a fresh result from
// the snapshot and schema; nothing is cached or mutated, so the same inputs
// always give the same outputs.
// ============================================================================

// Aggregator computes chart-ready results over one snapshot.
type Aggregator struct {
	snap *Snapshot
	sch  schema.Schema
	view RecordView
}

// NewAggregator binds a snapshot to a schema.
func NewAggregator(snap *Snapshot, sch schema.Schema) *Aggregator {
	return &Aggregator{
		snap: snap,
		sch:  sch,
		view: entityAdapter(sch).Bind(snap.entities),
	}
}

// Len is the number of entities visible to the aggregator.
func (a *Aggregator) Len() int { return a.view.Len() }

// ============================================================================
// GRADE DISTRIBUTION
// ============================================================================

// GradeDistribution maps each grade to its number of distinct entities.
// Entities without a grade are not counted.
type GradeDistribution map[schema.Grade]int

// GradeCount is one entry of an ordered distribution.
type GradeCount struct {
	Grade schema.Grade `json:"grade"`
	Count int          `json:"count"`
}

// Ordered lists all five grades best first, absent grades with zero.
func (d GradeDistribution) Ordered() []GradeCount {
	grades := schema.Grades()
	out := make([]GradeCount, 0, len(grades))
	for _, g := range grades {
		out = append(out, GradeCount{Grade: g, Count: d[g]})
	}
	return out
}

// Total is the number of graded entities.
func (d GradeDistribution) Total() int {
	n := 0
	for _, c := range d {
		n += c
	}
	return n
}

// Groups converts the distribution into chart groups, best grade first.
// With skipEmpty, grades with no entities are left out.
func (d GradeDistribution) Groups(skipEmpty bool) []Group {
	var groups []Group
	for _, gc := range d.Ordered() {
		if skipEmpty && gc.Count == 0 {
			continue
		}
		groups = append(groups, Group{
			Key:   string(gc.Grade),
			Label: string(gc.Grade),
			Value: float64(gc.Count),
			Count: gc.Count,
			Color: gc.Grade.Color(),
		})
	}
	return groups
}

// GradeDistribution counts entities per grade.
func (a *Aggregator) GradeDistribution() GradeDistribution {
	dist := make(GradeDistribution)
	for _, g := range groupBySingle(a.view, DimGrade) {
		if g.Key == "" {
			continue
		}
		dist[schema.Grade(g.Key)] = countDistinct(g.View, DimName)
	}
	return dist
}

// ============================================================================
// RANKING
// ============================================================================

// TopN returns the n highest total scores, best first. Ties keep worksheet
// order. n <= 0 gives an empty ranking; n larger than the entity count
// gives every entity.
func (a *Aggregator) TopN(n int) []RankedEntity {
	if n <= 0 {
		return []RankedEntity{}
	}

	groups := groupBySingle(a.view, DimName)
	for i := range groups {
		groups[i].Value = groups[i].View.Measure(0, MeasureTotal)
		groups[i].Count = groups[i].View.Len()
	}
	sortByValueDesc(groups)

	if len(groups) > n {
		groups = groups[:n]
	}

	ranked := make([]RankedEntity, 0, len(groups))
	for i, g := range groups {
		ranked = append(ranked, RankedEntity{
			Rank:       i + 1,
			Name:       g.Key,
			TotalScore: g.Value,
			Grade:      schema.Grade(g.View.Dimension(0, DimGrade)),
		})
	}
	return ranked
}

// ============================================================================
// CATEGORY COMPARISONS
// ============================================================================

// CategoryComparison returns an entity's achieved score against the
// category maximum recorded on its row.
func (a *Aggregator) CategoryComparison(entity, categoryID string) (Comparison, error) {
	c, err := a.sch.Category(categoryID)
	if err != nil {
		return Comparison{}, err
	}
	row, err := a.entityView(entity)
	if err != nil {
		return Comparison{}, err
	}
	return compare(row, entity, c), nil
}

// EntityProfile compares an entity against every category, in schema order.
func (a *Aggregator) EntityProfile(entity string) ([]Comparison, error) {
	row, err := a.entityView(entity)
	if err != nil {
		return nil, err
	}
	categories := a.sch.Categories()
	out := make([]Comparison, 0, len(categories))
	for _, c := range categories {
		out = append(out, compare(row, entity, c))
	}
	return out, nil
}

func compare(row RecordView, entity string, c schema.Category) Comparison {
	cmp := Comparison{
		Entity:   entity,
		Category: c.ID,
		Achieved: row.Measure(0, c.ScoreField),
		Max:      row.Measure(0, c.MaxField),
	}
	if cmp.Achieved > cmp.Max {
		cmp.OverMax = true
		log.Printf("⚠️ Scorecard: %s scores %g in %s, above its max of %g",
			entity, cmp.Achieved, c.ID, cmp.Max)
	}
	return cmp
}

// CategoryScores lists every entity's score in one category, worksheet order.
func (a *Aggregator) CategoryScores(categoryID string) ([]EntityScore, error) {
	c, err := a.sch.Category(categoryID)
	if err != nil {
		return nil, err
	}
	out := make([]EntityScore, 0, a.view.Len())
	for i := 0; i < a.view.Len(); i++ {
		out = append(out, EntityScore{
			Entity:   a.view.Dimension(i, DimName),
			Achieved: a.view.Measure(i, c.ScoreField),
			Max:      a.view.Measure(i, c.MaxField),
		})
	}
	return out, nil
}

// IndicatorRow returns an entity's indicator statuses for one category.
func (a *Aggregator) IndicatorRow(entity, categoryID string) (IndicatorRow, error) {
	c, err := a.sch.Category(categoryID)
	if err != nil {
		return IndicatorRow{}, err
	}
	if _, err := a.entityView(entity); err != nil {
		return IndicatorRow{}, err
	}
	row, ok := a.snap.indicatorRow(c.ID, entity)
	if !ok {
		return IndicatorRow{}, fmt.Errorf("%w: %s has no row in %s", ErrNoIndicatorData, entity, c.Sheet())
	}
	return row, nil
}

// ============================================================================
// MARKERS
// ============================================================================

// Markers returns one marker per entity with coordinates, worksheet order.
func (a *Aggregator) Markers() []Marker {
	located := make([]int, 0, a.view.Len())
	for i := 0; i < a.view.Len(); i++ {
		if a.view.Measure(i, MeasureLocation) > 0 {
			located = append(located, i)
		}
	}
	v := newSubView(a.view, located)

	markers := make([]Marker, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		name := v.Dimension(i, DimName)
		grade := schema.Grade(v.Dimension(i, DimGrade))
		total := v.Measure(i, MeasureTotal)
		markers = append(markers, Marker{
			Name:       name,
			Lat:        v.Measure(i, MeasureLat),
			Lon:        v.Measure(i, MeasureLon),
			Grade:      grade,
			Color:      grade.Color(),
			TotalScore: total,
			Tooltip:    name,
			Popup:      fmt.Sprintf("%s<br>Score: %s<br>Grade: %s", name, FormatScore(total), grade),
		})
	}
	return markers
}

// entityView narrows the view to one entity.
func (a *Aggregator) entityView(entity string) (RecordView, error) {
	v := ApplyFilters(a.view, EntityFilter(entity))
	if v.Len() == 0 {
		return nil, entityNotFound(entity)
	}
	return v, nil
}

// ============================================================================
// GROUPING
// ============================================================================

func groupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := view.Dimension(i, dimension)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:   key,
			Label: key,
			Count: len(grouped[key]),
			View:  newSubView(view, grouped[key]),
		})
	}
	return groups
}

func countDistinct(view RecordView, dimension string) int {
	seen := make(map[string]bool)
	for i := 0; i < view.Len(); i++ {
		seen[view.Dimension(i, dimension)] = true
	}
	return len(seen)
}

// ============================================================================
// SORTING
// ============================================================================

// sortByValueDesc sorts groups highest value first. Sorting is stable:
// equal groups keep their grouping order.
func sortByValueDesc(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value > groups[j].Value })
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatScore prints a score without trailing zeros: 14, 7.5, 3.25.
func FormatScore(v float64) string {
	return fmt.Sprintf("%g", RoundTo2(v))
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
