package sources

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/spf13/cast"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/spektr-org/scorecard/engine"
)

// ============================================================================
// GOOGLE SHEETS — Live spreadsheet through the Sheets v4 API
// ============================================================================
// Authenticates with a service account. The spreadsheet is addressed by id,
// or by its Drive file name when no id is configured.
// ============================================================================

// DefaultSpreadsheetName is the spreadsheet the dashboard reads by default.
const DefaultSpreadsheetName = "Pourashava_Dashboard_V3"

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// SheetsConfig configures the Google Sheets source.
type SheetsConfig struct {
	SpreadsheetID   string
	SpreadsheetName string // used when SpreadsheetID is empty
	CredentialsJSON []byte // service account key; empty = application default credentials

	// ClientOptions replace the credential options entirely (tests, emulators).
	ClientOptions []option.ClientOption
}

// Sheets reads worksheets from one Google spreadsheet.
type Sheets struct {
	svc *sheets.Service
	id  string

	mu     sync.Mutex
	titles map[string]bool
}

// NewSheets connects and resolves the spreadsheet id.
func NewSheets(ctx context.Context, cfg SheetsConfig) (*Sheets, error) {
	opts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: sheets client: %v", engine.ErrSourceUnavailable, err)
	}

	id := cfg.SpreadsheetID
	if id == "" {
		name := cfg.SpreadsheetName
		if name == "" {
			name = DefaultSpreadsheetName
		}
		drv, err := drive.NewService(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: drive client: %v", engine.ErrSourceUnavailable, err)
		}
		id, err = resolveSpreadsheet(ctx, drv, name)
		if err != nil {
			return nil, err
		}
		log.Printf("📄 Scorecard: resolved spreadsheet %q to %s", name, id)
	}

	return &Sheets{svc: svc, id: id}, nil
}

func clientOptions(ctx context.Context, cfg SheetsConfig) ([]option.ClientOption, error) {
	if len(cfg.ClientOptions) > 0 {
		return cfg.ClientOptions, nil
	}

	scopes := []string{sheets.SpreadsheetsReadonlyScope, drive.DriveMetadataReadonlyScope}
	var creds *google.Credentials
	var err error
	if len(cfg.CredentialsJSON) > 0 {
		creds, err = google.CredentialsFromJSON(ctx, cfg.CredentialsJSON, scopes...)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, scopes...)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: google credentials: %v", engine.ErrSourceUnavailable, err)
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

// resolveSpreadsheet finds a spreadsheet by exact Drive file name.
func resolveSpreadsheet(ctx context.Context, drv *drive.Service, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), spreadsheetMimeType)
	list, err := drv.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(10).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: drive search for %q: %v", engine.ErrSourceUnavailable, name, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: no spreadsheet named %q is shared with the service account", engine.ErrSourceUnavailable, name)
	}
	if len(list.Files) > 1 {
		log.Printf("⚠️ Scorecard: %d spreadsheets named %q, using %s", len(list.Files), name, list.Files[0].Id)
	}
	return list.Files[0].Id, nil
}

func (s *Sheets) Name() string { return "sheets:" + s.id }

// SpreadsheetID is the resolved spreadsheet id.
func (s *Sheets) SpreadsheetID() string { return s.id }

// Fetch reads one worksheet's values. Cells are converted to text with
// spf13/cast, so numbers arrive as plain decimals.
func (s *Sheets) Fetch(ctx context.Context, sheet string) (engine.Table, error) {
	titles, err := s.sheetTitles(ctx, false)
	if err != nil {
		return engine.Table{}, err
	}
	if !titles[sheet] {
		// tabs may have been added or renamed since the titles were cached
		if titles, err = s.sheetTitles(ctx, true); err != nil {
			return engine.Table{}, err
		}
		if !titles[sheet] {
			return engine.Table{}, fmt.Errorf("%w: %s", engine.ErrSheetNotFound, sheet)
		}
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.id, quoteSheet(sheet)).
		ValueRenderOption("UNFORMATTED_VALUE").
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return engine.Table{}, fmt.Errorf("values of %s: %w", sheet, err)
	}

	raw, err := toStrings(resp.Values)
	if err != nil {
		return engine.Table{}, fmt.Errorf("values of %s: %w", sheet, err)
	}
	return engine.NewTable(sheet, raw)
}

// sheetTitles lists worksheet titles, cached until refresh is set.
func (s *Sheets) sheetTitles(ctx context.Context, refresh bool) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.titles != nil && !refresh {
		return s.titles, nil
	}
	ss, err := s.svc.Spreadsheets.Get(s.id).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("spreadsheet %s: %w", s.id, err)
	}
	titles := make(map[string]bool, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles[sh.Properties.Title] = true
		}
	}
	s.titles = titles
	return titles, nil
}

func toStrings(values [][]interface{}) ([][]string, error) {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			v, err := cast.ToStringE(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i+1, j+1, err)
			}
			out[i][j] = v
		}
	}
	return out, nil
}

// quoteSheet makes a worksheet title safe as an A1 range ("O&M" → 'O&M').
func quoteSheet(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
