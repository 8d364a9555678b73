package sources

import (
	"context"
	"fmt"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/scorecard/engine"
)

// Workbook reads worksheets from a local .xlsx file, typically the
// spreadsheet downloaded as Microsoft Excel.
type Workbook struct {
	path string

	mu sync.Mutex
	f  *excelize.File
}

// OpenWorkbook opens path. Close it when done.
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Workbook{path: path, f: f}, nil
}

func (w *Workbook) Name() string { return "xlsx:" + w.path }

// Fetch reads one worksheet with formatted cell values.
func (w *Workbook) Fetch(ctx context.Context, sheet string) (engine.Table, error) {
	if err := ctx.Err(); err != nil {
		return engine.Table{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	idx, err := w.f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return engine.Table{}, fmt.Errorf("%w: %s in %s", engine.ErrSheetNotFound, sheet, w.path)
	}
	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return engine.Table{}, fmt.Errorf("read %s from %s: %w", sheet, w.path, err)
	}
	return engine.NewTable(sheet, rows)
}

func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
