package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spektr-org/scorecard/archive"
	"github.com/spektr-org/scorecard/engine"
	"github.com/spektr-org/scorecard/render"
)

// ============================================================================
// HTTP API — One engine.Session per dashboard user
// ============================================================================
// Routes:
//   POST   /api/sessions                  create (loads a snapshot)
//   GET    /api/sessions/{id}             current page
//   DELETE /api/sessions/{id}
//   PUT    /api/sessions/{id}/view        {"view": "..."}
//   PUT    /api/sessions/{id}/entity      {"entity": "..."}
//   POST   /api/sessions/{id}/reload
//   GET    /api/sessions/{id}/entities    sorted names
//   GET    /api/sessions/{id}/charts/{key}  PNG of one chart section
//   POST   /api/sessions/{id}/archive     store a run summary
//   GET    /api/views
//   GET    /api/runs?limit=N
//   GET    /api/runs/{id}                 one run with ranking and grades
//   GET    /health
//
// Sessions idle longer than the idle timeout are evicted, and the least
// recently used session makes room once the session limit is reached.
// ============================================================================

// Session registry bounds.
const (
	DefaultMaxSessions = 100
	DefaultIdleTimeout = 30 * time.Minute
)

// RunStore persists run summaries. *archive.Archive satisfies it.
type RunStore interface {
	StoreRun(ctx context.Context, run archive.Run) (uuid.UUID, error)
	Runs(ctx context.Context, limit int) ([]archive.Run, error)
	Run(ctx context.Context, id uuid.UUID) (archive.Run, error)
}

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

var errNoArchive = errors.New("archive not configured")

// Server routes requests to sessions. Sessions never share a snapshot.
type Server struct {
	loader engine.Loader
	render []engine.RenderOption
	runs   RunStore
	tag    string

	maxSessions int
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
}

type entry struct {
	sess     *engine.Session
	lastUsed time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithRenderOptions applies opts to every session's pages.
func WithRenderOptions(opts ...engine.RenderOption) Option {
	return func(s *Server) { s.render = append(s.render, opts...) }
}

// WithArchive enables the archive routes. Runs are stored with tag.
func WithArchive(store RunStore, tag string) Option {
	return func(s *Server) {
		s.runs = store
		s.tag = tag
	}
}

// WithSessionLimit caps the number of open sessions. n <= 0 keeps the default.
func WithSessionLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithIdleTimeout evicts sessions unused for d. d <= 0 keeps the default.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}

// New builds a server whose sessions load snapshots with loader.
func New(loader engine.Loader, opts ...Option) *Server {
	s := &Server{
		loader:      loader,
		maxSessions: DefaultMaxSessions,
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
		sessions:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/sessions", s.handleCreate)
	mux.HandleFunc("GET /api/sessions/{id}", s.handlePage)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDelete)
	mux.HandleFunc("PUT /api/sessions/{id}/view", s.handleSelectView)
	mux.HandleFunc("PUT /api/sessions/{id}/entity", s.handleSelectEntity)
	mux.HandleFunc("POST /api/sessions/{id}/reload", s.handleReload)
	mux.HandleFunc("GET /api/sessions/{id}/entities", s.handleEntities)
	mux.HandleFunc("GET /api/sessions/{id}/charts/{key}", s.handleChart)
	mux.HandleFunc("POST /api/sessions/{id}/archive", s.handleArchive)
	mux.HandleFunc("GET /api/views", s.handleViews)
	mux.HandleFunc("GET /api/runs", s.handleRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleRun)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}

// ListenAndServe serves the API on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("🌐 Scorecard: API listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	sweep := time.NewTicker(time.Minute)
	defer sweep.Stop()

	for {
		select {
		case err := <-errc:
			return err
		case <-sweep.C:
			s.mu.Lock()
			s.evictIdle()
			s.mu.Unlock()
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
}

// Len is the number of open sessions.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) session(r *http.Request) (*engine.Session, error) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || s.now().Sub(e.lastUsed) > s.idleTimeout {
		delete(s.sessions, id)
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	e.lastUsed = s.now()
	return e.sess, nil
}

// register adds sess, evicting idle sessions and then the least recently
// used one while the registry is full. Callers hold s.mu.
func (s *Server) register(id string, sess *engine.Session) {
	s.evictIdle()
	for len(s.sessions) >= s.maxSessions {
		var oldest string
		var at time.Time
		for k, e := range s.sessions {
			if oldest == "" || e.lastUsed.Before(at) {
				oldest, at = k, e.lastUsed
			}
		}
		delete(s.sessions, oldest)
		log.Printf("🗑️ Scorecard: session %s evicted, limit %d reached", oldest, s.maxSessions)
	}
	s.sessions[id] = &entry{sess: sess, lastUsed: s.now()}
}

// evictIdle drops sessions unused for longer than the idle timeout.
// Callers hold s.mu.
func (s *Server) evictIdle() {
	now := s.now()
	for id, e := range s.sessions {
		if now.Sub(e.lastUsed) > s.idleTimeout {
			delete(s.sessions, id)
			log.Printf("🗑️ Scorecard: session %s expired", id)
		}
	}
}

// ============================================================================
// HANDLERS
// ============================================================================

type sessionState struct {
	ID     string       `json:"id"`
	View   engine.View  `json:"view"`
	Entity string       `json:"entity,omitempty"`
	Page   *engine.Page `json:"page"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, err := engine.NewSession(r.Context(), s.loader, s.render...)
	if err != nil {
		writeError(w, err)
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.register(id, sess)
	s.mu.Unlock()

	log.Printf("🆕 Scorecard: session %s opened", id)
	s.writeState(w, http.StatusCreated, id, sess)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeState(w, http.StatusOK, r.PathValue("id"), sess)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		writeError(w, fmt.Errorf("%w: %s", ErrSessionNotFound, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectView(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		View string `json:"view"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := sess.SelectView(body.View); err != nil {
		writeError(w, err)
		return
	}
	s.writeState(w, http.StatusOK, r.PathValue("id"), sess)
}

func (s *Server) handleSelectEntity(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		Entity string `json:"entity"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := sess.SelectEntity(body.Entity); err != nil {
		writeError(w, err)
		return
	}
	s.writeState(w, http.StatusOK, r.PathValue("id"), sess)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	// Detached from the client; the loader timeout bounds the reload.
	if err := sess.Reload(context.WithoutCancel(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	s.writeState(w, http.StatusOK, r.PathValue("id"), sess)
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	names, err := sess.EntityNames()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"entities": names})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	page, err := sess.Render()
	if err != nil {
		writeError(w, err)
		return
	}

	key := r.PathValue("key")
	for _, sec := range page.Sections {
		if sec.Key != key {
			continue
		}
		if sec.Type != engine.SectionChart || sec.Failed() {
			writeJSON(w, http.StatusNotFound, errorBody{Error: fmt.Sprintf("section %s has no chart", key)})
			return
		}
		writeChart(w, key, sec.Chart)
		return
	}
	writeJSON(w, http.StatusNotFound, errorBody{Error: fmt.Sprintf("no section %s in %s", key, page.View)})
}

// writeChart encodes the whole PNG before sending any header.
func writeChart(w http.ResponseWriter, key string, cfg *engine.ChartConfig) {
	var buf bytes.Buffer
	if err := render.WriteChart(&buf, cfg); err != nil {
		writeError(w, fmt.Errorf("chart %s: %w", key, err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, errNoArchive)
		return
	}
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := sess.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := s.runs.StoreRun(r.Context(), archive.NewRun(snap, s.tag))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"runId": id.String()})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, errNoArchive)
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	runs, err := s.runs.Runs(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]archive.Run{"runs": runs})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, errNoArchive)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid run id: " + err.Error()})
		return
	}
	run, err := s.runs.Run(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type viewInfo struct {
	Name       engine.View `json:"name"`
	Title      string      `json:"title"`
	Filterable bool        `json:"filterable"`
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	var views []viewInfo
	for _, v := range engine.Views() {
		views = append(views, viewInfo{Name: v, Title: v.Title(), Filterable: v.Filterable()})
	}
	writeJSON(w, http.StatusOK, map[string][]viewInfo{"views": views})
}

func (s *Server) writeState(w http.ResponseWriter, status int, id string, sess *engine.Session) {
	page, err := sess.Render()
	if err != nil {
		writeError(w, err)
		return
	}
	state := sessionState{ID: id, View: sess.View(), Page: page}
	state.Entity, _ = sess.Entity()
	writeJSON(w, status, state)
}

// ============================================================================
// ENCODING & ERROR MAPPING
// ============================================================================

type errorBody struct {
	Error string `json:"error"`
}

type badRequest struct{ err error }

func (b badRequest) Error() string { return "invalid JSON: " + b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest{err}
	}
	return nil
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	var bad badRequest
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrSessionFailed):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, engine.ErrEntityNotFound),
		errors.Is(err, engine.ErrUnknownCategory),
		errors.Is(err, engine.ErrNoIndicatorData),
		errors.Is(err, archive.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrUnknownView),
		errors.Is(err, engine.ErrViewNotFilterable):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrSourceUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, errNoArchive):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("❌ Scorecard: %d %v", status, err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️ Scorecard: encode response: %v", err)
	}
}
