package engine

import "github.com/spektr-org/scorecard/schema"

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The aggregator never walks Snapshot internals. It reads through this
// interface.
//
// Implementations:
//   DomainView[T]  : reads typed structs via accessor functions (zero-copy)
//   SubView        : filtered subset (indices into parent, zero-copy)
//
// The entity adapter is declared once per schema; views are bound per
// snapshot.
// ============================================================================

// RecordView provides indexed access to a dataset.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
}

// Entity view keys. Category measures are keyed by category id (achieved)
// and schema.Category.MaxField (max).
const (
	DimName         = "name"
	DimGrade        = "grade"
	MeasureTotal    = "total_score"
	MeasureLocation = "has_location"
	MeasureLat      = "lat"
	MeasureLon      = "lon"
)

// View binds the snapshot's entities through the entity adapter.
func (s *Snapshot) View() RecordView {
	return entityAdapter(s.schema).Bind(s.entities)
}

// entityAdapter registers one achieved and one max measure per category.
func entityAdapter(sch schema.Schema) *DomainAdapter[Entity] {
	a := NewDomainAdapter[Entity]().
		Dimension(DimName, func(e Entity) string { return e.Name }).
		Dimension(DimGrade, func(e Entity) string { return string(e.Grade) }).
		Measure(MeasureTotal, func(e Entity) float64 { return e.TotalScore }).
		Measure(MeasureLocation, func(e Entity) float64 {
			if e.Location != nil {
				return 1
			}
			return 0
		}).
		Measure(MeasureLat, func(e Entity) float64 {
			if e.Location == nil {
				return 0
			}
			return e.Location.Lat
		}).
		Measure(MeasureLon, func(e Entity) float64 {
			if e.Location == nil {
				return 0
			}
			return e.Location.Lon
		})

	for _, c := range sch.Categories() {
		id := c.ID
		a.Measure(c.ScoreField, func(e Entity) float64 { return e.Scores[id].Achieved })
		a.Measure(c.MaxField, func(e Entity) float64 { return e.Scores[id].Max })
	}
	return a
}

// ============================================================================
// SUB VIEW: filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent RecordView.
// Holds indices into the parent; no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.indices) {
		return 0
	}
	return v.parent.Measure(v.indices[i], key)
}

// ============================================================================
// DOMAIN ADAPTER — Zero-copy typed struct access
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[Entity]().
//	    Dimension("name", func(e Entity) string { return e.Name }).
//	    Measure("total_score", func(e Entity) float64 { return e.TotalScore })
//
//	view := adapter.Bind(entities)
//
// ============================================================================

// DomainAdapter builds a RecordView from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	dims map[string]func(T) string
	meas map[string]func(T) float64
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{
		dims: make(map[string]func(T) string),
		meas: make(map[string]func(T) float64),
	}
}

// Dimension registers a dimension accessor.
func (a *DomainAdapter[T]) Dimension(key string, fn func(T) string) *DomainAdapter[T] {
	a.dims[key] = fn
	return a
}

// Measure registers a measure accessor.
func (a *DomainAdapter[T]) Measure(key string, fn func(T) float64) *DomainAdapter[T] {
	a.meas[key] = fn
	return a
}

// Bind creates a RecordView from a data slice. Zero-copy; holds a reference.
func (a *DomainAdapter[T]) Bind(data []T) RecordView {
	return &DomainView[T]{
		data: data,
		dims: a.dims,
		meas: a.meas,
	}
}

// DomainView reads typed struct fields via registered accessor functions.
type DomainView[T any] struct {
	data []T
	dims map[string]func(T) string
	meas map[string]func(T) float64
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.data) {
		return ""
	}
	if fn, ok := v.dims[key]; ok {
		return fn(v.data[i])
	}
	return ""
}

func (v *DomainView[T]) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.data) {
		return 0
	}
	if fn, ok := v.meas[key]; ok {
		return fn(v.data[i])
	}
	return 0
}
