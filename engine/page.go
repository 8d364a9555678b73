package engine

import (
	"fmt"
	"log"

	"github.com/spektr-org/scorecard/schema"
)

// ============================================================================
// PAGE — View dispatcher
// ============================================================================
// Entry point: RenderPage(snap, view, entity, opts...)
//
// Pipeline:
//   1. Bind an Aggregator to the snapshot and its schema
//   2. Dispatch to the view's section builders
//   3. Suppress any section whose aggregation fails (Error set, no data)
//   4. Return the Page
//
// A failing section never fails the page. Only an unknown view does.
// ============================================================================

// RenderPage computes every section of one view.
func RenderPage(snap *Snapshot, view View, entity string, opts ...RenderOption) (*Page, error) {
	cfg := applyRenderOptions(opts)
	sch := snap.Schema()
	agg := NewAggregator(snap, sch)

	page := &Page{View: view, Title: view.Title(), Sections: []Section{}}
	if view.Filterable() {
		page.Entity = entity
	}

	log.Printf("🔧 Scorecard: rendering view=%s entity=%q over %d entities", view, page.Entity, agg.Len())

	switch view {
	case ViewAbout:
		renderAbout(page, snap, cfg)
	case ViewOverview:
		renderOverview(page, agg, cfg)
	case ViewAreaPerformance:
		renderAreaPerformance(page, agg, sch)
	case ViewEntityPerformance:
		if !requireEntity(page) {
			break
		}
		renderEntityPerformance(page, agg, snap, sch)
	case ViewIndicators:
		if !requireEntity(page) {
			break
		}
		renderIndicators(page, agg, sch)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}

	failed := 0
	for _, s := range page.Sections {
		if s.Failed() {
			failed++
		}
	}
	if failed > 0 {
		log.Printf("⚠️ Scorecard: %d of %d sections suppressed in %s", failed, len(page.Sections), view)
	}
	return page, nil
}

func requireEntity(page *Page) bool {
	if page.Entity != "" {
		return true
	}
	page.Warnings = append(page.Warnings, "no Pourashava selected")
	return false
}

// ============================================================================
// VIEWS
// ============================================================================

func renderAbout(page *Page, snap *Snapshot, cfg *renderConfig) {
	page.Sections = append(page.Sections,
		textSection("about", DashboardTitle, cfg.About),
		textSection("source", "Data", BuildLoadSummary(snap)),
	)
}

func renderOverview(page *Page, agg *Aggregator, cfg *renderConfig) {
	dist := agg.GradeDistribution()
	ranked := agg.TopN(cfg.TopN)

	page.Sections = append(page.Sections,
		Section{
			Key:   "map",
			Title: "Location of the Participating Pourashava",
			Type:  SectionMap,
			Map:   BuildMap(agg.Markers(), cfg.MapCenter, cfg.MapZoom),
		},
		chartSection("grade_pie", "Pourashavas by Grade", BuildGradePie(dist), nil),
		chartSection("grade_bar", "Grade Counts", BuildGradeBar(dist), nil),
		textSection("legend", "Grades", BuildLegendText()),
		Section{
			Key:   "top",
			Title: fmt.Sprintf("Top %d Pourashavas", cfg.TopN),
			Type:  SectionTable,
			Table: BuildRankingTable(ranked, agg.Len()),
		},
	)
}

func renderAreaPerformance(page *Page, agg *Aggregator, sch schema.Schema) {
	for _, c := range sch.Categories() {
		scores, err := agg.CategoryScores(c.ID)
		var chart *ChartConfig
		if err == nil {
			chart = BuildCategoryChart(c, scores)
		}
		page.Sections = append(page.Sections, chartSection("area:"+c.ID, c.Title(), chart, err))
	}
}

func renderEntityPerformance(page *Page, agg *Aggregator, snap *Snapshot, sch schema.Schema) {
	entity := page.Entity

	summary := Section{Key: "summary", Title: entity, Type: SectionText}
	if e, err := snap.Entity(entity); err != nil {
		summary.Error = err.Error()
	} else {
		summary.Text = BuildEntitySummary(e, agg.TopN(agg.Len()), sch)
	}
	page.Sections = append(page.Sections, summary)

	for i, c := range sch.Categories() {
		title := c.Label
		if i == 0 {
			title = "Performance Comparison for " + entity
		}
		cmp, err := agg.CategoryComparison(entity, c.ID)
		var chart *ChartConfig
		if err == nil {
			chart = BuildComparisonChart(c, cmp, title)
			if cmp.OverMax {
				page.Warnings = append(page.Warnings, fmt.Sprintf("%s: score %s exceeds max score %s",
					c.Label, FormatScore(cmp.Achieved), FormatScore(cmp.Max)))
			}
		}
		page.Sections = append(page.Sections, chartSection("performance:"+c.ID, title, chart, err))
	}
}

func renderIndicators(page *Page, agg *Aggregator, sch schema.Schema) {
	page.Title = "Indicators for " + page.Entity
	for _, c := range sch.Categories() {
		if len(c.Indicators) == 0 {
			continue
		}
		s := Section{Key: "indicators:" + c.ID, Title: c.Label, Type: SectionTable}
		row, err := agg.IndicatorRow(page.Entity, c.ID)
		if err != nil {
			s.Error = err.Error()
		} else {
			s.Table = BuildIndicatorTable(c, row)
		}
		page.Sections = append(page.Sections, s)
	}
}

// ============================================================================
// SECTION HELPERS
// ============================================================================

func chartSection(key, title string, chart *ChartConfig, err error) Section {
	s := Section{Key: key, Title: title, Type: SectionChart}
	switch {
	case err != nil:
		s.Error = err.Error()
	case chart == nil:
		s.Error = "not enough data to generate a chart"
	default:
		s.Chart = chart
	}
	return s
}

func textSection(key, title, text string) Section {
	return Section{Key: key, Title: title, Type: SectionText, Text: text}
}
