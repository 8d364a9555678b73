package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// VIEW SELECTOR — Which view is active, and for which entity
// ============================================================================
// One state per view plus an entity filter that only applies inside the
// filterable views. The filter survives trips through other views; it is
// reported only while a filterable view is active.
// ============================================================================

// View names one page of the scorecard.
type View string

const (
	ViewAbout             View = "About"
	ViewOverview          View = "Overview"
	ViewAreaPerformance   View = "AreaPerformance"
	ViewEntityPerformance View = "EntityPerformance"
	ViewIndicators        View = "Indicators"
)

// Views lists every view in menu order.
func Views() []View {
	return []View{ViewAbout, ViewOverview, ViewAreaPerformance, ViewEntityPerformance, ViewIndicators}
}

var viewTitles = map[View]string{
	ViewAbout:             "About",
	ViewOverview:          "Overview",
	ViewAreaPerformance:   "Area wise Performance",
	ViewEntityPerformance: "Pourashava Performance",
	ViewIndicators:        "Indicators",
}

// dashboard menu labels, misspelling included
var viewAliases = map[string]View{
	"area wise performance":  ViewAreaPerformance,
	"pourashava pefromance":  ViewEntityPerformance,
	"pourashava performance": ViewEntityPerformance,
}

// Title is the display heading of the view.
func (v View) Title() string {
	if t, ok := viewTitles[v]; ok {
		return t
	}
	return string(v)
}

// Filterable reports whether the view takes an entity filter.
func (v View) Filterable() bool {
	return v == ViewEntityPerformance || v == ViewIndicators
}

// ParseView resolves a view name. Matching ignores case and surrounding
// space; menu labels are accepted as aliases.
func ParseView(name string) (View, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, v := range Views() {
		if strings.ToLower(string(v)) == key {
			return v, nil
		}
	}
	if v, ok := viewAliases[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, name)
}

// Selector holds the active view and entity filter.
// It is not safe for concurrent use; Session serialises access.
type Selector struct {
	view   View
	entity string
}

// NewSelector starts on the About view with no filter.
func NewSelector() *Selector {
	return &Selector{view: ViewAbout}
}

// View is the active view.
func (s *Selector) View() View { return s.view }

// Entity returns the entity filter while a filterable view is active.
func (s *Selector) Entity() (string, bool) {
	if !s.view.Filterable() || s.entity == "" {
		return "", false
	}
	return s.entity, true
}

// SelectView moves to the named view. The entity filter is kept.
func (s *Selector) SelectView(name string) error {
	v, err := ParseView(name)
	if err != nil {
		return err
	}
	s.view = v
	return nil
}

// SelectEntity sets the filter without changing the view. An unknown name
// leaves the previous filter in place.
func (s *Selector) SelectEntity(name string, snap *Snapshot) error {
	if !s.view.Filterable() {
		return fmt.Errorf("%w: %s", ErrViewNotFilterable, s.view)
	}
	if !snap.Has(name) {
		return entityNotFound(name)
	}
	s.entity = name
	return nil
}

// reconcile fits the filter to a snapshot: a vanished entity is dropped,
// and a filterable view without a filter gets the first name alphabetically.
func (s *Selector) reconcile(snap *Snapshot) {
	if s.entity != "" && !snap.Has(s.entity) {
		s.entity = ""
	}
	if s.view.Filterable() && s.entity == "" {
		if names := snap.EntityNames(); len(names) > 0 {
			s.entity = names[0]
		}
	}
}
