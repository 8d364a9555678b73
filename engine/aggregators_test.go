package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/spektr-org/scorecard/schema"
)

// ============================================================================
// AGGREGATOR TESTS
// ============================================================================

func TestGradeDistribution(t *testing.T) {
	agg := NewAggregator(loadFixture(t), testSchema(t))
	dist := agg.GradeDistribution()

	assertEqual(t, len(dist), 2, "distinct grades")
	assertEqual(t, dist[schema.GradeAPlus], 1, "A+ count")
	assertEqual(t, dist[schema.GradeB], 2, "B count")
	assertEqual(t, dist.Total(), 3, "total")

	ordered := dist.Ordered()
	if len(ordered) != 5 {
		t.Fatalf("Ordered should list all five grades, got %d", len(ordered))
	}
	assertEqual(t, ordered[0], GradeCount{Grade: schema.GradeAPlus, Count: 1}, "first")
	assertEqual(t, ordered[1], GradeCount{Grade: schema.GradeA, Count: 0}, "absent grade")
	assertEqual(t, ordered[2], GradeCount{Grade: schema.GradeB, Count: 2}, "B")
}

func TestGradeDistributionSkipsUngraded(t *testing.T) {
	rows := append(overviewRows(), []string{"D", "23", "90", "40", "", "1", "17", "1", "7"})
	snap := mustLoad(t, rows)
	dist := NewAggregator(snap, testSchema(t)).GradeDistribution()

	graded := 0
	for _, e := range snap.Entities() {
		if e.Grade != "" {
			graded++
		}
	}
	assertEqual(t, dist.Total(), graded, "sum of grade counts")
	assertEqual(t, snap.Len(), 4, "entities")
}

func TestTopN(t *testing.T) {
	agg := NewAggregator(loadFixture(t), testSchema(t))

	top := agg.TopN(2)
	if len(top) != 2 {
		t.Fatalf("TopN(2) returned %d rows", len(top))
	}
	assertEqual(t, top[0], RankedEntity{Rank: 1, Name: "A", TotalScore: 90, Grade: schema.GradeAPlus}, "first")
	assertEqual(t, top[1], RankedEntity{Rank: 2, Name: "B", TotalScore: 70, Grade: schema.GradeB}, "tie broken by row order")

	again := agg.TopN(2)
	for i := range top {
		assertEqual(t, again[i], top[i], "TopN is idempotent")
	}

	all := agg.TopN(10)
	assertEqual(t, len(all), 3, "n above count returns every entity")
	for i := 1; i < len(all); i++ {
		if all[i].TotalScore > all[i-1].TotalScore {
			t.Errorf("ranking not descending at %d: %v", i, all)
		}
	}
	assertEqual(t, all[2].Name, "C", "last")

	if got := agg.TopN(0); got == nil || len(got) != 0 {
		t.Errorf("TopN(0) should be empty, got %v", got)
	}
	assertEqual(t, len(agg.TopN(-3)), 0, "negative n")
}

func TestCategoryComparison(t *testing.T) {
	agg := NewAggregator(loadFixture(t), testSchema(t))

	cmp, err := agg.CategoryComparison("A", "Citizen")
	if err != nil {
		t.Fatalf("CategoryComparison failed: %v", err)
	}
	assertEqual(t, cmp.Achieved, 14.0, "achieved")
	assertEqual(t, cmp.Max, 17.0, "max")
	assertEqual(t, cmp.OverMax, false, "over max")

	over, err := agg.CategoryComparison("C", "Citizen")
	if err != nil {
		t.Fatalf("CategoryComparison failed: %v", err)
	}
	assertEqual(t, over.OverMax, true, "C over max")
	assertEqual(t, over.Achieved, 18.0, "over max is not clamped")

	if _, err := agg.CategoryComparison("Z", "Citizen"); !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got %v", err)
	}
	if _, err := agg.CategoryComparison("A", "Parking"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestEntityProfile(t *testing.T) {
	agg := NewAggregator(loadFixture(t), testSchema(t))

	profile, err := agg.EntityProfile("B")
	if err != nil {
		t.Fatalf("EntityProfile failed: %v", err)
	}
	if len(profile) != 2 {
		t.Fatalf("expected 2 comparisons, got %d", len(profile))
	}
	assertEqual(t, profile[1], Comparison{Entity: "B", Category: "Planning", Achieved: 5, Max: 7}, "planning")

	if _, err := agg.EntityProfile("Z"); !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestCategoryScores(t *testing.T) {
	agg := NewAggregator(loadFixture(t), testSchema(t))

	scores, err := agg.CategoryScores("Planning")
	if err != nil {
		t.Fatalf("CategoryScores failed: %v", err)
	}
	want := []EntityScore{{"A", 6, 7}, {"B", 5, 7}, {"C", 4, 7}}
	if len(scores) != len(want) {
		t.Fatalf("got %d scores, want %d", len(scores), len(want))
	}
	for i := range want {
		assertEqual(t, scores[i], want[i], "score row")
	}

	if _, err := agg.CategoryScores("Parking"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestIndicatorRow(t *testing.T) {
	agg := NewAggregator(loadFixture(t), testSchema(t))

	row, err := agg.IndicatorRow("A", "Citizen")
	if err != nil {
		t.Fatalf("IndicatorRow failed: %v", err)
	}
	assertEqual(t, len(row.Values), 2, "values")
	assertEqual(t, row.Values[1], "No", "WC Formation")
	v, ok := row.Value("TLCC Formation")
	assertEqual(t, ok, true, "field present")
	assertEqual(t, v, "Yes", "TLCC Formation")

	if _, err := agg.IndicatorRow("C", "Citizen"); !errors.Is(err, ErrNoIndicatorData) {
		t.Errorf("expected ErrNoIndicatorData, got %v", err)
	}
	if _, err := agg.IndicatorRow("Z", "Citizen"); !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got %v", err)
	}
	if _, err := agg.IndicatorRow("A", "Parking"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestFilter(t *testing.T) {
	view := loadFixture(t).View()

	only := ApplyFilters(view, EntityFilter("B", "Z"))
	assertEqual(t, only.Len(), 1, "filtered entities")
	assertEqual(t, only.Dimension(0, DimName), "B", "filtered entity")
	assertEqual(t, only.Measure(0, MeasureTotal), 70.0, "filtered total")
	assertEqual(t, ApplyFilters(view, EntityFilter()).Len(), 3, "no names, no restriction")
}

func TestMarkersAndMap(t *testing.T) {
	agg := NewAggregator(loadFixture(t), testSchema(t))

	markers := agg.Markers()
	if len(markers) != 2 {
		t.Fatalf("expected markers for A and B only, got %d", len(markers))
	}
	assertEqual(t, markers[0].Color, "darkgreen", "A+ color")
	assertEqual(t, markers[1].Color, "lightblue", "B color")
	assertEqual(t, markers[0].Tooltip, "A", "tooltip")
	assertEqual(t, markers[0].Popup, "A<br>Score: 90<br>Grade: A+", "popup")

	m := BuildMap(markers, Coordinates{Lat: DefaultMapLat, Lon: DefaultMapLon}, DefaultMapZoom)
	if m.Bounds == nil || m.Centroid == nil {
		t.Fatalf("expected bounds and centroid, got %+v", m)
	}
	assertEqual(t, m.Bounds.West, 90.4, "west")
	assertEqual(t, m.Bounds.East, 91.8, "east")
	assertEqual(t, m.Bounds.South, 22.3, "south")
	assertEqual(t, m.Bounds.North, 23.8, "north")
	if math.Abs(m.Centroid.Lat-23.05) > 1e-9 || math.Abs(m.Centroid.Lon-91.1) > 1e-9 {
		t.Errorf("unexpected centroid %+v", m.Centroid)
	}
	assertEqual(t, len(m.Legend), 5, "legend entries")

	empty := BuildMap(nil, Coordinates{}, 7)
	if empty.Bounds != nil || empty.Centroid != nil {
		t.Errorf("empty map should have no extent: %+v", empty)
	}
}

func TestFormatScore(t *testing.T) {
	assertEqual(t, FormatScore(14), "14", "integer")
	assertEqual(t, FormatScore(7.5), "7.5", "half")
	assertEqual(t, FormatScore(3.14159), "3.14", "rounded")
	assertEqual(t, FormatInt(12345), "12,345", "thousands")
}
