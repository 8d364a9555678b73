package schema

import "strings"

// Grade is the externally derived performance tier of an entity.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
)

// UnknownGradeColor is the marker color for anything outside the enum.
const UnknownGradeColor = "black"

var gradeOrder = []Grade{GradeAPlus, GradeA, GradeB, GradeC, GradeD}

var gradeColors = map[Grade]string{
	GradeAPlus: "darkgreen",
	GradeA:     "lightgreen",
	GradeB:     "lightblue",
	GradeC:     "gray",
	GradeD:     "lightgray",
}

var gradeLabels = map[Grade]string{
	GradeAPlus: "Outstanding",
	GradeA:     "Very Good",
	GradeB:     "Good",
	GradeC:     "Average",
	GradeD:     "Unsatisfactory",
}

// Grades returns all grades best first.
func Grades() []Grade {
	out := make([]Grade, len(gradeOrder))
	copy(out, gradeOrder)
	return out
}

// ParseGrade normalizes spreadsheet text ("a+", " B ") into a Grade.
func ParseGrade(s string) (Grade, bool) {
	g := Grade(strings.ToUpper(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", false
	}
	return g, true
}

// Valid reports whether g is one of the five grades.
func (g Grade) Valid() bool {
	_, ok := gradeColors[g]
	return ok
}

// Color is the fixed display color for map markers.
func (g Grade) Color() string {
	if c, ok := gradeColors[g]; ok {
		return c
	}
	return UnknownGradeColor
}

// Label is the human description, e.g. "Outstanding" for A+.
func (g Grade) Label() string {
	return gradeLabels[g]
}

// Legend renders "A+ (Outstanding), A (Very Good), ...".
func Legend() string {
	parts := make([]string, 0, len(gradeOrder))
	for _, g := range gradeOrder {
		parts = append(parts, string(g)+" ("+g.Label()+")")
	}
	return strings.Join(parts, ", ")
}
