package schema

import (
	"errors"
	"fmt"
)

// ============================================================================
// SCHEMA — Static description of the scoring categories
// ============================================================================
// The engine reads the Overview worksheet through these field references and
// the per-category indicator worksheets through Category.Sheet().
// Validation runs once at load time; nothing here changes afterwards.
// ============================================================================

var (
	// ErrSchemaMismatch is returned when a referenced worksheet or column is absent.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrUnknownCategory is returned for a category id the schema does not declare.
	ErrUnknownCategory = errors.New("unknown category")
)

// Overview worksheet and its fixed columns.
const (
	OverviewSheet = "Overview"

	FieldName       = "Pourashava"
	FieldLat        = "Lat"
	FieldLon        = "Lon"
	FieldTotalScore = "Total Score"
	FieldGrade      = "Grade"
)

// Category is one governance-performance dimension.
type Category struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	MaxScore   float64  `json:"maxScore"`
	ScoreField string   `json:"scoreField"`
	MaxField   string   `json:"maxField"`
	Indicators []string `json:"indicators,omitempty"`
}

// Sheet returns the worksheet holding this category's indicator rows.
func (c Category) Sheet() string {
	return c.ID
}

// Title is the section heading used by the area performance charts.
func (c Category) Title() string {
	return fmt.Sprintf("%s (Max Score %g)", c.Label, c.MaxScore)
}

// NewCategory declares a category whose raw score column is its id and
// whose max score column is "<id> Max Score".
func NewCategory(id, label string, maxScore float64, indicators ...string) Category {
	return Category{
		ID:         id,
		Label:      label,
		MaxScore:   maxScore,
		ScoreField: id,
		MaxField:   id + " Max Score",
		Indicators: indicators,
	}
}

// Schema is the ordered, immutable set of categories.
type Schema struct {
	categories []Category
	byID       map[string]int
}

// New builds a Schema. Category ids must be unique and non-empty.
func New(categories ...Category) (Schema, error) {
	s := Schema{
		categories: make([]Category, 0, len(categories)),
		byID:       make(map[string]int, len(categories)),
	}
	for _, c := range categories {
		if c.ID == "" {
			return Schema{}, fmt.Errorf("category with label %q has no id", c.Label)
		}
		if _, dup := s.byID[c.ID]; dup {
			return Schema{}, fmt.Errorf("duplicate category id %q", c.ID)
		}
		c.Indicators = append([]string(nil), c.Indicators...)
		s.byID[c.ID] = len(s.categories)
		s.categories = append(s.categories, c)
	}
	return s, nil
}

// Categories returns the categories in declaration order.
// The slice is a copy; callers may not change the schema through it.
func (s Schema) Categories() []Category {
	out := make([]Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Category looks up a category by id.
func (s Schema) Category(id string) (Category, error) {
	i, ok := s.byID[id]
	if !ok {
		return Category{}, fmt.Errorf("%w: %q", ErrUnknownCategory, id)
	}
	return s.categories[i], nil
}

// Len returns the number of categories.
func (s Schema) Len() int { return len(s.categories) }

// TotalMax is the sum of the static category max scores.
func (s Schema) TotalMax() float64 {
	var total float64
	for _, c := range s.categories {
		total += c.MaxScore
	}
	return total
}

// OverviewFields lists every Overview column the engine reads, fixed columns first.
func (s Schema) OverviewFields() []string {
	fields := []string{FieldName, FieldLat, FieldLon, FieldTotalScore, FieldGrade}
	for _, c := range s.categories {
		fields = append(fields, c.ScoreField, c.MaxField)
	}
	return fields
}

// Sheets lists the worksheets the engine reads: Overview, then one per
// category that declares indicators.
func (s Schema) Sheets() []string {
	sheets := []string{OverviewSheet}
	for _, c := range s.categories {
		if len(c.Indicators) > 0 {
			sheets = append(sheets, c.Sheet())
		}
	}
	return sheets
}
