package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spektr-org/scorecard/engine"
)

// ============================================================================
// CSV DIRECTORY — One <sheet>.csv file per worksheet
// ============================================================================
// A spreadsheet exported worksheet by worksheet ("File → Download → CSV")
// lands as a directory of CSV files named after their worksheets.
// ============================================================================

// CSVDir reads worksheets from a directory of CSV exports.
type CSVDir struct {
	dir string
}

// NewCSVDir returns a source over dir. The directory is checked on Fetch.
func NewCSVDir(dir string) *CSVDir {
	return &CSVDir{dir: dir}
}

func (c *CSVDir) Name() string { return "csv:" + c.dir }

// Fetch reads <dir>/<sheet>.csv.
func (c *CSVDir) Fetch(ctx context.Context, sheet string) (engine.Table, error) {
	if err := ctx.Err(); err != nil {
		return engine.Table{}, err
	}

	path := filepath.Join(c.dir, sheet+".csv")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return engine.Table{}, fmt.Errorf("%w: %s", engine.ErrSheetNotFound, path)
		}
		return engine.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return ParseCSV(f, sheet)
}

// ParseCSV reads one worksheet from CSV. Rows may have fewer cells than the
// header; a UTF-8 byte order mark on the first cell is dropped.
func ParseCSV(r io.Reader, sheet string) (engine.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var raw [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return engine.Table{}, fmt.Errorf("read %s csv: %w", sheet, err)
		}
		raw = append(raw, row)
	}

	if len(raw) > 0 && len(raw[0]) > 0 {
		raw[0][0] = trimBOM(raw[0][0])
	}
	return engine.NewTable(sheet, raw)
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
