package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// ============================================================================
// SELECTOR TESTS
// ============================================================================

func TestParseView(t *testing.T) {
	tests := []struct {
		in   string
		want View
	}{
		{"Overview", ViewOverview},
		{" overview ", ViewOverview},
		{"AreaPerformance", ViewAreaPerformance},
		{"Area wise Performance", ViewAreaPerformance},
		{"Pourashava Pefromance", ViewEntityPerformance},
		{"indicators", ViewIndicators},
		{"About", ViewAbout},
	}
	for _, tt := range tests {
		got, err := ParseView(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseView(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseView("Dashboard"); !errors.Is(err, ErrUnknownView) {
		t.Errorf("expected ErrUnknownView, got %v", err)
	}
}

func TestSelectorFilter(t *testing.T) {
	snap := loadFixture(t)
	sel := NewSelector()

	assertEqual(t, sel.View(), ViewAbout, "initial view")
	if _, ok := sel.Entity(); ok {
		t.Error("About should carry no entity filter")
	}

	if err := sel.SelectEntity("A", snap); !errors.Is(err, ErrViewNotFilterable) {
		t.Errorf("expected ErrViewNotFilterable, got %v", err)
	}

	if err := sel.SelectView("EntityPerformance"); err != nil {
		t.Fatalf("SelectView failed: %v", err)
	}
	if err := sel.SelectEntity("B", snap); err != nil {
		t.Fatalf("SelectEntity failed: %v", err)
	}

	if err := sel.SelectEntity("Z", snap); !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got %v", err)
	}
	got, _ := sel.Entity()
	assertEqual(t, got, "B", "filter kept after unknown entity")

	if err := sel.SelectView("Dashboard"); !errors.Is(err, ErrUnknownView) {
		t.Errorf("expected ErrUnknownView, got %v", err)
	}
	assertEqual(t, sel.View(), ViewEntityPerformance, "view kept after unknown view")

	_ = sel.SelectView("Overview")
	if _, ok := sel.Entity(); ok {
		t.Error("Overview should not report the filter")
	}
	_ = sel.SelectView("Indicators")
	got, _ = sel.Entity()
	assertEqual(t, got, "B", "filter restored in Indicators")
}

// ============================================================================
// SESSION TESTS
// ============================================================================

// swapLoader serves whatever load func is current.
type swapLoader struct {
	next func(ctx context.Context) (*Snapshot, error)
}

func (s *swapLoader) load(ctx context.Context) (*Snapshot, error) { return s.next(ctx) }

func TestSessionDefaultsToFirstEntity(t *testing.T) {
	s, err := NewSession(context.Background(), fixtureLoader(t))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	assertEqual(t, s.View(), ViewAbout, "initial view")

	if err := s.SelectView("EntityPerformance"); err != nil {
		t.Fatalf("SelectView failed: %v", err)
	}
	got, ok := s.Entity()
	assertEqual(t, ok, true, "filter set")
	assertEqual(t, got, "A", "first entity alphabetically")

	names, err := s.EntityNames()
	if err != nil || strings.Join(names, ",") != "A,B,C" {
		t.Errorf("EntityNames = %v, %v", names, err)
	}
}

func TestSessionReloadFailureBlocks(t *testing.T) {
	good := fixtureLoader(t)
	sw := &swapLoader{next: good}

	s, err := NewSession(context.Background(), sw.load)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	sw.next = func(ctx context.Context) (*Snapshot, error) {
		return Load(ctx, failingSource{err: errors.New("network down")}, testSchema(t))
	}
	if err := s.Reload(context.Background()); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}

	_, err = s.Render()
	if !errors.Is(err, ErrSessionFailed) || !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Render should be blocked by the failed reload, got %v", err)
	}
	if err := s.SelectView("Overview"); !errors.Is(err, ErrSessionFailed) {
		t.Errorf("SelectView should be blocked, got %v", err)
	}
	if _, err := s.Snapshot(); !errors.Is(err, ErrSessionFailed) {
		t.Errorf("Snapshot should be blocked, got %v", err)
	}

	sw.next = good
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if s.Err() != nil {
		t.Errorf("session should recover, still failed with %v", s.Err())
	}
	if _, err := s.Render(); err != nil {
		t.Errorf("Render after recovery failed: %v", err)
	}
}

func TestSessionReloadCancelledKeepsSnapshot(t *testing.T) {
	sw := &swapLoader{next: fixtureLoader(t)}
	s, err := NewSession(context.Background(), sw.load)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	before, _ := s.Snapshot()

	sw.next = func(ctx context.Context) (*Snapshot, error) {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: worksheet Planning: %v", ErrSourceUnavailable, ctx.Err())
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Reload(ctx); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}

	if s.Err() != nil {
		t.Errorf("cancelled reload should not block the session, got %v", s.Err())
	}
	if _, err := s.Render(); err != nil {
		t.Errorf("Render after cancelled reload failed: %v", err)
	}
	after, _ := s.Snapshot()
	if after != before {
		t.Error("cancelled reload should keep the previous snapshot")
	}
}

func TestSessionReloadResetsVanishedEntity(t *testing.T) {
	sw := &swapLoader{next: fixtureLoader(t)}
	s, err := NewSession(context.Background(), sw.load)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	_ = s.SelectView("Indicators")
	if err := s.SelectEntity("B"); err != nil {
		t.Fatalf("SelectEntity failed: %v", err)
	}

	without := [][]string{overviewRows()[0], overviewRows()[2]}
	sw.next = NewLoader(fixtureSource(t, without), testSchema(t))
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	got, _ := s.Entity()
	assertEqual(t, got, "A", "vanished filter replaced by first entity")
}

func TestSessionsDoNotShareSnapshots(t *testing.T) {
	loader := fixtureLoader(t)
	a, _ := NewSession(context.Background(), loader)
	b, _ := NewSession(context.Background(), loader)

	sa, _ := a.Snapshot()
	sb, _ := b.Snapshot()
	if sa == sb {
		t.Error("each session must hold its own snapshot")
	}
}
