package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/spektr-org/scorecard/archive"
	"github.com/spektr-org/scorecard/engine"
	"github.com/spektr-org/scorecard/schema"
)

// ============================================================================
// FIXTURES
// ============================================================================

func testLoader(t *testing.T, failing *atomic.Bool) engine.Loader {
	t.Helper()
	sch, err := schema.New(
		schema.NewCategory("Citizen", "Citizen Awareness and Participation", 17, "TLCC Formation"),
	)
	if err != nil {
		t.Fatalf("schema.New failed: %v", err)
	}
	overview, err := engine.NewTable(schema.OverviewSheet, [][]string{
		{"Pourashava", "Lat", "Lon", "Total Score", "Grade", "Citizen", "Citizen Max Score"},
		{"Bogura", "24.85", "89.37", "70", "B", "10", "17"},
		{"Rajshahi", "24.37", "88.60", "90", "A+", "14", "17"},
	})
	if err != nil {
		t.Fatal(err)
	}
	citizen, err := engine.NewTable("Citizen", [][]string{
		{"Pourashava", "TLCC Formation"},
		{"Rajshahi", "Yes"},
	})
	if err != nil {
		t.Fatal(err)
	}
	load := engine.NewLoader(engine.NewStaticSource("fixture", overview, citizen), sch)

	return func(ctx context.Context) (*engine.Snapshot, error) {
		if failing != nil && failing.Load() {
			return nil, fmt.Errorf("%w: spreadsheet offline", engine.ErrSourceUnavailable)
		}
		return load(ctx)
	}
}

type state struct {
	ID     string      `json:"id"`
	View   string      `json:"view"`
	Entity string      `json:"entity"`
	Page   engine.Page `json:"page"`
	Error  string      `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, state) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var st state
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &st)
	}
	return rec, st
}

func create(t *testing.T, h http.Handler) string {
	t.Helper()
	rec, st := do(t, h, http.MethodPost, "/api/sessions", nil)
	if rec.Code != http.StatusCreated || st.ID == "" {
		t.Fatalf("create session: %d %s", rec.Code, rec.Body.String())
	}
	return st.ID
}

// ============================================================================
// TESTS
// ============================================================================

func TestSessionLifecycle(t *testing.T) {
	srv := New(testLoader(t, nil), WithRenderOptions(engine.WithTopN(1)))
	h := srv.Handler()

	id := create(t, h)
	base := "/api/sessions/" + id

	rec, st := do(t, h, http.MethodGet, base, nil)
	if rec.Code != http.StatusOK || st.View != string(engine.ViewAbout) {
		t.Fatalf("initial page: %d view=%s", rec.Code, st.View)
	}

	rec, st = do(t, h, http.MethodPut, base+"/view", map[string]string{"view": "overview"})
	if rec.Code != http.StatusOK || st.Page.View != engine.ViewOverview {
		t.Fatalf("select overview: %d %s", rec.Code, rec.Body.String())
	}
	for _, sec := range st.Page.Sections {
		if sec.Key == "top" && len(sec.Table.Rows) != 1 {
			t.Errorf("top N render option not applied: %d rows", len(sec.Table.Rows))
		}
	}

	rec, st = do(t, h, http.MethodPut, base+"/view", map[string]string{"view": "Pourashava Performance"})
	if rec.Code != http.StatusOK || st.Entity != "Bogura" {
		t.Fatalf("filterable view should default to first entity: %d entity=%q", rec.Code, st.Entity)
	}

	rec, st = do(t, h, http.MethodPut, base+"/entity", map[string]string{"entity": "Rajshahi"})
	if rec.Code != http.StatusOK || st.Page.Entity != "Rajshahi" {
		t.Fatalf("select entity: %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = do(t, h, http.MethodGet, base+"/entities", nil)
	var names map[string][]string
	json.Unmarshal(rec.Body.Bytes(), &names)
	if strings.Join(names["entities"], ",") != "Bogura,Rajshahi" {
		t.Errorf("entities = %v", names)
	}

	rec, _ = do(t, h, http.MethodPost, base+"/reload", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("reload: %d", rec.Code)
	}

	rec, _ = do(t, h, http.MethodDelete, base, nil)
	if rec.Code != http.StatusNoContent || srv.Len() != 0 {
		t.Errorf("delete: %d, %d sessions left", rec.Code, srv.Len())
	}
	rec, _ = do(t, h, http.MethodGet, base, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted session: expected 404, got %d", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	h := New(testLoader(t, nil)).Handler()
	id := create(t, h)
	base := "/api/sessions/" + id

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown view", http.MethodPut, base + "/view", map[string]string{"view": "Parking"}, http.StatusBadRequest},
		{"bad json", http.MethodPut, base + "/view", "{view:", http.StatusBadRequest},
		{"unknown field", http.MethodPut, base + "/view", map[string]string{"page": "About"}, http.StatusBadRequest},
		{"entity outside filterable view", http.MethodPut, base + "/entity", map[string]string{"entity": "Bogura"}, http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/api/sessions/nope", nil, http.StatusNotFound},
		{"archive disabled", http.MethodPost, base + "/archive", nil, http.StatusNotImplemented},
	}
	for _, tt := range tests {
		rec, st := do(t, h, tt.method, tt.path, tt.body)
		if rec.Code != tt.want {
			t.Errorf("%s: status %d, want %d (%s)", tt.name, rec.Code, tt.want, rec.Body.String())
		}
		if st.Error == "" {
			t.Errorf("%s: no error message in body", tt.name)
		}
	}

	do(t, h, http.MethodPut, base+"/view", map[string]string{"view": "Indicators"})
	rec, _ := do(t, h, http.MethodPut, base+"/entity", map[string]string{"entity": "Dhaka"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown entity: expected 404, got %d", rec.Code)
	}
	_, st := do(t, h, http.MethodGet, base, nil)
	if st.Entity != "Bogura" {
		t.Errorf("unknown entity should keep the previous filter, got %q", st.Entity)
	}
}

func TestSourceFailures(t *testing.T) {
	var failing atomic.Bool
	h := New(testLoader(t, &failing)).Handler()
	id := create(t, h)
	base := "/api/sessions/" + id

	failing.Store(true)
	rec, _ := do(t, h, http.MethodPost, "/api/sessions", nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("create with source down: expected 502, got %d", rec.Code)
	}

	rec, _ = do(t, h, http.MethodPost, base+"/reload", nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("failed reload: expected 502, got %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodGet, base, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("blocked session: expected 503, got %d", rec.Code)
	}

	failing.Store(false)
	rec, _ = do(t, h, http.MethodPost, base+"/reload", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("recovered reload: expected 200, got %d", rec.Code)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	h := New(testLoader(t, nil)).Handler()
	a, b := create(t, h), create(t, h)

	do(t, h, http.MethodPut, "/api/sessions/"+a+"/view", map[string]string{"view": "Overview"})
	_, st := do(t, h, http.MethodGet, "/api/sessions/"+b, nil)
	if st.View != string(engine.ViewAbout) {
		t.Errorf("session %s changed by another session: view=%s", b, st.View)
	}
}

func TestChartPNG(t *testing.T) {
	h := New(testLoader(t, nil)).Handler()
	base := "/api/sessions/" + create(t, h)
	do(t, h, http.MethodPut, base+"/view", map[string]string{"view": "Overview"})

	rec, _ := do(t, h, http.MethodGet, base+"/charts/grade_pie", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("chart: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("chart body is not a PNG")
	}

	rec, _ = do(t, h, http.MethodGet, base+"/charts/legend", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("text section as chart: expected 404, got %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodGet, base+"/charts/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing section: expected 404, got %d", rec.Code)
	}
}

func TestArchiveRoutes(t *testing.T) {
	ctx := context.Background()
	store, err := archive.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("archive.Open failed: %v", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	h := New(testLoader(t, nil), WithArchive(store, "api")).Handler()
	base := "/api/sessions/" + create(t, h)

	rec, _ := do(t, h, http.MethodPost, base+"/archive", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("archive: %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = do(t, h, http.MethodGet, "/api/runs?limit=5", nil)
	var body struct {
		Runs []archive.Run `json:"runs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(body.Runs) != 1 || body.Runs[0].Tag != "api" || body.Runs[0].EntityCount != 2 {
		t.Errorf("unexpected runs %+v", body.Runs)
	}

	rec, _ = do(t, h, http.MethodGet, "/api/runs?limit=-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit: expected 400, got %d", rec.Code)
	}

	rec, _ = do(t, h, http.MethodGet, "/api/runs/"+body.Runs[0].ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("run detail: %d %s", rec.Code, rec.Body.String())
	}
	var run archive.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if len(run.Ranking) != 2 || run.Ranking[0].Name != "Rajshahi" || len(run.Grades) != 5 {
		t.Errorf("unexpected run detail %+v", run)
	}

	rec, _ = do(t, h, http.MethodGet, "/api/runs/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown run: expected 404, got %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodGet, "/api/runs/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad run id: expected 400, got %d", rec.Code)
	}
}

func TestRunsWithoutArchive(t *testing.T) {
	h := New(testLoader(t, nil)).Handler()
	rec, _ := do(t, h, http.MethodGet, "/api/runs/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("expected 501, got %d", rec.Code)
	}
}

func TestWriteChartFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeChart(rec, "grade_pie", &engine.ChartConfig{ChartType: engine.ChartBar})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("failed chart should answer JSON, got %q", ct)
	}
	if bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("failed chart should not send PNG bytes")
	}
}

func TestSessionLimit(t *testing.T) {
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	srv := New(testLoader(t, nil), WithSessionLimit(2))
	srv.now = func() time.Time { return clock }
	h := srv.Handler()

	first := create(t, h)
	clock = clock.Add(time.Second)
	second := create(t, h)
	clock = clock.Add(time.Second)
	do(t, h, http.MethodGet, "/api/sessions/"+first, nil) // first is now the most recent
	clock = clock.Add(time.Second)
	third := create(t, h)

	assertEqual(t, srv.Len(), 2, "open sessions")
	for id, want := range map[string]int{
		first:  http.StatusOK,
		second: http.StatusNotFound,
		third:  http.StatusOK,
	} {
		rec, _ := do(t, h, http.MethodGet, "/api/sessions/"+id, nil)
		if rec.Code != want {
			t.Errorf("session %s: expected %d, got %d", id, want, rec.Code)
		}
	}
}

func TestIdleSessionsExpire(t *testing.T) {
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	srv := New(testLoader(t, nil), WithIdleTimeout(time.Minute))
	srv.now = func() time.Time { return clock }
	h := srv.Handler()

	idle := create(t, h)
	clock = clock.Add(30 * time.Second)
	active := create(t, h)

	clock = clock.Add(45 * time.Second)
	rec, _ := do(t, h, http.MethodGet, "/api/sessions/"+idle, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("idle session: expected 404, got %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodGet, "/api/sessions/"+active, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("active session: expected 200, got %d", rec.Code)
	}

	clock = clock.Add(2 * time.Minute)
	create(t, h)
	assertEqual(t, srv.Len(), 1, "expired sessions swept on create")
}

func TestViewsAndHealth(t *testing.T) {
	h := New(testLoader(t, nil)).Handler()

	rec, _ := do(t, h, http.MethodGet, "/api/views", nil)
	var body struct {
		Views []viewInfo `json:"views"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Views) != 5 || !body.Views[3].Filterable || body.Views[0].Filterable {
		t.Errorf("unexpected views %+v", body.Views)
	}

	rec, _ = do(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health: %d %q", rec.Code, rec.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", engine.ErrSchemaMismatch), http.StatusInternalServerError},
		{fmt.Errorf("%w: x", engine.ErrUnknownCategory), http.StatusNotFound},
		{fmt.Errorf("%w: x", engine.ErrNoIndicatorData), http.StatusNotFound},
		{fmt.Errorf("%w: %w", engine.ErrSessionFailed, engine.ErrSourceUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func assertEqual[T comparable](t *testing.T, got, want T, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}
