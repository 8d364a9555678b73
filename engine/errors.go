package engine

import (
	"errors"
	"fmt"

	"github.com/spektr-org/scorecard/schema"
)

// ============================================================================
// ERRORS — Failure taxonomy shared by loading, aggregation and selection
// ============================================================================
// Fatal:       ErrSourceUnavailable, ErrSchemaMismatch, ErrSessionFailed
// Recoverable: ErrEntityNotFound, ErrUnknownCategory, ErrUnknownView,
//              ErrViewNotFilterable, ErrNoIndicatorData
// Malformed rows are not errors; they are recorded on the Snapshot.
// ============================================================================

var (
	// ErrSourceUnavailable means the spreadsheet could not be reached or read.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSchemaMismatch means an expected worksheet or column is absent.
	ErrSchemaMismatch = schema.ErrSchemaMismatch

	// ErrUnknownCategory means a category id is not declared by the schema.
	ErrUnknownCategory = schema.ErrUnknownCategory

	// ErrEntityNotFound means an entity name is absent from the current snapshot.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrNoIndicatorData means a category worksheet has no row for an entity.
	ErrNoIndicatorData = errors.New("no indicator data")

	// ErrUnknownView means a view name is not one of the five views.
	ErrUnknownView = errors.New("unknown view")

	// ErrViewNotFilterable means an entity was selected outside a filterable view.
	ErrViewNotFilterable = errors.New("view does not take an entity filter")

	// ErrSheetNotFound is returned by a Source for a worksheet it does not hold.
	ErrSheetNotFound = errors.New("worksheet not found")

	// ErrSessionFailed means the session's last load failed; only Reload recovers it.
	ErrSessionFailed = errors.New("session failed")
)

// MalformedRow is a row excluded during load. It is counted and logged,
// never returned as an error.
type MalformedRow struct {
	Sheet  string `json:"sheet"`
	Line   int    `json:"line"`
	Entity string `json:"entity,omitempty"`
	Reason string `json:"reason"`
}

func (m MalformedRow) String() string {
	if m.Entity != "" {
		return fmt.Sprintf("%s line %d (%s): %s", m.Sheet, m.Line, m.Entity, m.Reason)
	}
	return fmt.Sprintf("%s line %d: %s", m.Sheet, m.Line, m.Reason)
}

func entityNotFound(name string) error {
	return fmt.Errorf("%w: %q", ErrEntityNotFound, name)
}
