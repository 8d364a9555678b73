package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// ============================================================================
// SESSION — One user's snapshot, selector and render options
// ============================================================================
// A session owns its snapshot outright; sessions never share one. Every
// method takes the session lock, so interactions are applied one at a time.
//
// A failed Reload leaves the session blocked: every call except Reload
// returns ErrSessionFailed until a reload succeeds.
// ============================================================================

// Session is the explicit context for one dashboard user.
type Session struct {
	mu     sync.Mutex
	loader Loader
	render []RenderOption

	snap   *Snapshot
	sel    *Selector
	failed error
}

// NewSession loads the first snapshot. A load failure is returned and no
// session is created.
func NewSession(ctx context.Context, loader Loader, opts ...RenderOption) (*Session, error) {
	snap, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{
		loader: loader,
		render: opts,
		snap:   snap,
		sel:    NewSelector(),
	}, nil
}

// Reload replaces the snapshot wholesale. On failure the session enters
// the failed state and keeps the error; the old snapshot is not served.
// A reload abandoned by its caller (ctx cancelled or past its deadline)
// leaves the session as it was.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loader(ctx)
	if err != nil {
		if ctx.Err() != nil {
			log.Printf("⚠️ Scorecard: reload abandoned: %v", err)
			return err
		}
		s.failed = err
		log.Printf("❌ Scorecard: reload failed: %v", err)
		return err
	}

	s.snap = snap
	s.failed = nil
	before := s.sel.entity
	s.sel.reconcile(snap)
	if before != "" && s.sel.entity != before {
		log.Printf("🔄 Scorecard: %q is gone after reload, filter reset", before)
	}
	log.Printf("🔄 Scorecard: reloaded %d entities", snap.Len())
	return nil
}

// Err is the failure blocking the session, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// SelectView switches the active view. Entering a filterable view without a
// filter selects the first entity alphabetically.
func (s *Session) SelectView(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.blocked(); err != nil {
		return err
	}
	if err := s.sel.SelectView(name); err != nil {
		return err
	}
	s.sel.reconcile(s.snap)
	return nil
}

// SelectEntity sets the entity filter. An unknown name leaves the previous
// filter in place.
func (s *Session) SelectEntity(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.blocked(); err != nil {
		return err
	}
	return s.sel.SelectEntity(name, s.snap)
}

// View is the active view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.View()
}

// Entity is the active entity filter, if the view takes one.
func (s *Session) Entity() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Entity()
}

// Snapshot returns the current snapshot.
func (s *Session) Snapshot() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.blocked(); err != nil {
		return nil, err
	}
	return s.snap, nil
}

// EntityNames lists the selectable entities, sorted.
func (s *Session) EntityNames() ([]string, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.EntityNames(), nil
}

// Render computes the page for the active view and filter.
func (s *Session) Render() (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.blocked(); err != nil {
		return nil, err
	}
	entity, _ := s.sel.Entity()
	return RenderPage(s.snap, s.sel.View(), entity, s.render...)
}

func (s *Session) blocked() error {
	if s.failed != nil {
		return fmt.Errorf("%w: %w", ErrSessionFailed, s.failed)
	}
	return nil
}
