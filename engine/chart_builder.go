package engine

import (
	"github.com/spektr-org/scorecard/schema"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig from aggregation results
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Comparison series colors.
const (
	ScoreColor    = "darkblue"
	MaxScoreColor = "lightblue"
)

// BuildGradePie charts the share of Pourashavas per grade. Grades with no
// entities are left out. Returns nil when nothing is graded.
func BuildGradePie(dist GradeDistribution) *ChartConfig {
	groups := dist.Groups(true)
	if len(groups) == 0 {
		return nil
	}
	return &ChartConfig{
		ChartType:  ChartPie,
		Title:      "Pourashavas by Grade",
		Series:     buildSingleSeries(groups, "Pourashavas"),
		Colors:     groupColors(groups),
		ShowLegend: true,
		ShowGrid:   false,
	}
}

// BuildGradeBar charts grade counts as horizontal bars, A+ through D,
// including grades with no entities.
func BuildGradeBar(dist GradeDistribution) *ChartConfig {
	if dist.Total() == 0 {
		return nil
	}
	groups := dist.Groups(false)
	return &ChartConfig{
		ChartType:  ChartBarHorizontal,
		Title:      "Grade Counts",
		XAxis:      "Pourashavas",
		YAxis:      "Grade",
		Series:     buildSingleSeries(groups, "Pourashavas"),
		Colors:     groupColors(groups),
		ShowLegend: false,
		ShowGrid:   true,
	}
}

// BuildCategoryChart charts every entity's score in one category.
func BuildCategoryChart(c schema.Category, scores []EntityScore) *ChartConfig {
	if len(scores) == 0 {
		return nil
	}
	groups := make([]Group, 0, len(scores))
	for _, s := range scores {
		groups = append(groups, Group{Key: s.Entity, Label: s.Entity, Value: s.Achieved, Count: 1})
	}
	series := buildSingleSeries(groups, c.ID)
	return &ChartConfig{
		ChartType:  ChartBar,
		Title:      c.Title(),
		XAxis:      schema.FieldName,
		YAxis:      "Score",
		Series:     series,
		Colors:     assignColors(len(series)),
		ShowLegend: false,
		ShowGrid:   true,
	}
}

// BuildComparisonChart charts one entity's score next to the category max.
func BuildComparisonChart(c schema.Category, cmp Comparison, title string) *ChartConfig {
	if title == "" {
		title = c.Label
	}
	return &ChartConfig{
		ChartType: ChartGroupedBar,
		Title:     title,
		XAxis:     c.Label,
		YAxis:     "Score",
		Series: []ChartSeries{
			{
				Name:  "Score",
				Data:  []ChartPoint{{Label: c.Label, Value: RoundTo2(cmp.Achieved)}},
				Color: ScoreColor,
			},
			{
				Name:  "Max Score",
				Data:  []ChartPoint{{Label: c.Label, Value: RoundTo2(cmp.Max)}},
				Color: MaxScoreColor,
			},
		},
		Colors:     []string{ScoreColor, MaxScoreColor},
		ShowLegend: true,
		ShowGrid:   true,
	}
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func buildSingleSeries(groups []Group, seriesName string) []ChartSeries {
	if seriesName == "" {
		seriesName = "Value"
	}

	points := make([]ChartPoint, 0, len(groups))
	for _, g := range groups {
		points = append(points, ChartPoint{
			Label: g.Label,
			Value: RoundTo2(g.Value),
			Color: g.Color,
		})
	}

	return []ChartSeries{{
		Name: seriesName,
		Data: points,
	}}
}

func groupColors(groups []Group) []string {
	colors := make([]string, len(groups))
	for i, g := range groups {
		colors[i] = g.Color
		if colors[i] == "" {
			colors[i] = defaultColors[i%len(defaultColors)]
		}
	}
	return colors
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
