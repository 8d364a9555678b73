package engine

import (
	"context"
	"testing"

	"github.com/spektr-org/scorecard/schema"
)

// ============================================================================
// FIXTURES — three Pourashavas, two categories
// ============================================================================
// A (90, A+) and B, C (70, B) tie on total; C has no coordinates, scores
// above the Citizen max, and has no Citizen indicator row.
// ============================================================================

var overviewHeader = []string{
	"Pourashava", "Lat", "Lon", "Total Score", "Grade",
	"Citizen", "Citizen Max Score", "Planning", "Planning Max Score",
}

func testSchema(t *testing.T) schema.Schema {
	t.Helper()
	s, err := schema.New(
		schema.NewCategory("Citizen", "Citizen Awareness and Participation", 17, "TLCC Formation", "WC Formation"),
		schema.NewCategory("Planning", "Urban Planning", 7, "PDP Status"),
	)
	if err != nil {
		t.Fatalf("schema.New failed: %v", err)
	}
	return s
}

func overviewRows() [][]string {
	return [][]string{
		{"A", "23.8", "90.4", "90", "A+", "14", "17", "6", "7"},
		{"B", "22.3", "91.8", "70", "B", "10", "17", "5", "7"},
		{"C", "", "", "70", "B", "18", "17", "4", "7"},
	}
}

func citizenRows() [][]string {
	return [][]string{
		{"A", "Yes", "No"},
		{"B", "Yes", "Yes"},
	}
}

func planningRows() [][]string {
	return [][]string{
		{"A", "Approved"},
		{"B", "Draft"},
		{"C", "Approved"},
	}
}

func mustTable(t *testing.T, sheet string, header []string, rows [][]string) Table {
	t.Helper()
	raw := append([][]string{header}, rows...)
	tbl, err := NewTable(sheet, raw)
	if err != nil {
		t.Fatalf("NewTable(%s) failed: %v", sheet, err)
	}
	return tbl
}

func fixtureSource(t *testing.T, overview [][]string) *StaticSource {
	t.Helper()
	return NewStaticSource("fixture",
		mustTable(t, schema.OverviewSheet, overviewHeader, overview),
		mustTable(t, "Citizen", []string{"Pourashava", "TLCC Formation", "WC Formation"}, citizenRows()),
		mustTable(t, "Planning", []string{"Pourashava", "PDP Status"}, planningRows()),
	)
}

func loadFixture(t *testing.T) *Snapshot {
	t.Helper()
	return mustLoad(t, overviewRows())
}

func mustLoad(t *testing.T, overview [][]string) *Snapshot {
	t.Helper()
	snap, err := Load(context.Background(), fixtureSource(t, overview), testSchema(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return snap
}

func fixtureLoader(t *testing.T) Loader {
	t.Helper()
	return NewLoader(fixtureSource(t, overviewRows()), testSchema(t))
}

func assertEqual[T comparable](t *testing.T, got, want T, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}
