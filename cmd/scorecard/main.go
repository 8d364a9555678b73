package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/spektr-org/scorecard/archive"
	"github.com/spektr-org/scorecard/config"
	"github.com/spektr-org/scorecard/engine"
	"github.com/spektr-org/scorecard/render"
	"github.com/spektr-org/scorecard/schema"
	"github.com/spektr-org/scorecard/server"
	"github.com/spektr-org/scorecard/sources"
)

// ============================================================================
// SCORECARD CLI — UGIAP Pourashava performance dashboard
// ============================================================================

const version = "1.0.0"

func main() {
	// ── Flags ─────────────────────────────────────────────────────────────
	sourceKind := flag.String("source", "", "Spreadsheet source: sheets, xlsx, csv (default from SCORECARD_SOURCE)")
	filePath := flag.String("file", "", "Path to a .xlsx workbook (--source xlsx)")
	dirPath := flag.String("dir", "", "Directory of <worksheet>.csv exports (--source csv)")
	viewName := flag.String("view", string(engine.ViewOverview), "View: About, Overview, AreaPerformance, EntityPerformance, Indicators")
	entity := flag.String("entity", "", "Pourashava for EntityPerformance and Indicators")
	format := flag.String("format", "json", "Output format: json, pretty, text, csv")
	outFile := flag.String("out", "", "Write output to file instead of stdout")
	pngDir := flag.String("png-dir", "", "Also write every chart of the view as PNG into this directory")
	doArchive := flag.Bool("archive", false, "Store a run summary in SCORECARD_ARCHIVE_DSN")
	listRuns := flag.Int("runs", 0, "List the N most recent archived runs and exit")
	showRun := flag.String("run", "", "Print one archived run with its ranking and exit")
	serve := flag.Bool("serve", false, "Serve the HTTP API on PORT")
	envFile := flag.String("env", ".env", "Environment file to load")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Scorecard — UGIAP Pourashava performance dashboard

Usage:
  scorecard --view Overview --format pretty
  scorecard --source xlsx --file dashboard.xlsx --view EntityPerformance --entity Bogura --format text
  scorecard --source csv --dir export/ --view AreaPerformance --format csv --out area.csv
  scorecard --view Overview --png-dir charts/ --archive
  scorecard --serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Environment:
  SCORECARD_SOURCE                     sheets (default), xlsx or csv
  SCORECARD_SPREADSHEET_ID             Google spreadsheet id
  SCORECARD_SPREADSHEET_NAME           Spreadsheet name when no id is set
  GOOGLE_SERVICE_ACCOUNT_CREDENTIALS   Service account key JSON
  GOOGLE_APPLICATION_CREDENTIALS       Path to a service account key file
  SCORECARD_ARCHIVE_DSN                postgres://, mysql:// or sqlite:// archive
  PORT                                 API port for --serve (default 8080)

Formats:
  json      Full page as JSON (default)
  pretty    Pretty-printed JSON
  text      Human-readable page
  csv       Chart and table data as CSV (ready for Sheets/Excel)
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("scorecard %s\n", version)
		os.Exit(0)
	}

	// ── Configuration ─────────────────────────────────────────────────────
	cfg, err := config.Load(*envFile)
	if err != nil {
		fatalf("Invalid configuration: %v", err)
	}
	if *sourceKind != "" {
		cfg.Source.Kind = strings.ToLower(*sourceKind)
	}
	if *filePath != "" {
		cfg.Source.XLSXPath = *filePath
	}
	if *dirPath != "" {
		cfg.Source.CSVDir = *dirPath
	}
	if err := cfg.Validate(); err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Archive-only mode ─────────────────────────────────────────────────
	if *listRuns > 0 {
		store := openArchive(ctx, cfg)
		defer store.Close()
		runs, err := store.Runs(ctx, *listRuns)
		if err != nil {
			fatalf("Failed to list runs: %v", err)
		}
		writeJSON(os.Stdout, runs, *format)
		return
	}
	if *showRun != "" {
		id, err := uuid.Parse(*showRun)
		if err != nil {
			fatalf("Invalid run id %q: %v", *showRun, err)
		}
		store := openArchive(ctx, cfg)
		defer store.Close()
		run, err := store.Run(ctx, id)
		if err != nil {
			fatalf("%v", err)
		}
		writeJSON(os.Stdout, run, *format)
		return
	}

	// ── Source ────────────────────────────────────────────────────────────
	src, closeSrc, err := openSource(ctx, cfg)
	if err != nil {
		fatalf("Failed to open source: %v", err)
	}
	defer closeSrc()

	loader := engine.NewLoader(src, schema.Default(), cfg.LoadOptions()...)

	// ── Serve mode ────────────────────────────────────────────────────────
	if *serve {
		opts := []server.Option{server.WithRenderOptions(cfg.RenderOptions()...)}
		if cfg.Archive.DSN != "" {
			store := openArchive(ctx, cfg)
			defer store.Close()
			opts = append(opts, server.WithArchive(store, cfg.Archive.Tag))
		}
		srv := server.New(loader, opts...)
		if err := srv.ListenAndServe(ctx, ":"+cfg.Server.Port); err != nil {
			fatalf("Server stopped: %v", err)
		}
		return
	}

	// ── One-shot render ───────────────────────────────────────────────────
	sess, err := engine.NewSession(ctx, loader, cfg.RenderOptions()...)
	if err != nil {
		fatalf("Failed to load spreadsheet: %v", err)
	}
	if err := sess.SelectView(*viewName); err != nil {
		fatalf("%v", err)
	}
	if *entity != "" {
		if err := sess.SelectEntity(*entity); err != nil {
			fatalf("%v", err)
		}
	}
	page, err := sess.Render()
	if err != nil {
		fatalf("Render failed: %v", err)
	}

	// ── Output writer ─────────────────────────────────────────────────────
	writer := os.Stdout
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		writer = f
	}

	switch *format {
	case "csv":
		writeCSV(writer, page)
	case "text":
		writeText(writer, page)
	default:
		writeJSON(writer, page, *format)
	}
	if *outFile != "" {
		log.Printf("📄 %s written to %s", *format, *outFile)
	}

	if *pngDir != "" {
		if _, err := render.SavePage(*pngDir, page); err != nil {
			fatalf("Failed to write charts: %v", err)
		}
	}

	if *doArchive {
		if cfg.Archive.DSN == "" {
			fatalf("--archive needs SCORECARD_ARCHIVE_DSN")
		}
		snap, err := sess.Snapshot()
		if err != nil {
			fatalf("%v", err)
		}
		store := openArchive(ctx, cfg)
		defer store.Close()
		id, err := store.StoreRun(ctx, archive.NewRun(snap, cfg.Archive.Tag))
		if err != nil {
			fatalf("Failed to archive run: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Archived run %s\n", id)
	}
}

// ============================================================================
// WIRING
// ============================================================================

func openSource(ctx context.Context, cfg *config.Config) (engine.Source, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Source.Kind {
	case config.SourceXLSX:
		wb, err := sources.OpenWorkbook(cfg.Source.XLSXPath)
		if err != nil {
			return nil, noop, err
		}
		return wb, wb.Close, nil
	case config.SourceCSV:
		return sources.NewCSVDir(cfg.Source.CSVDir), noop, nil
	default:
		src, err := sources.NewSheets(ctx, sources.SheetsConfig{
			SpreadsheetID:   cfg.Source.SpreadsheetID,
			SpreadsheetName: cfg.Source.SpreadsheetName,
			CredentialsJSON: cfg.Source.CredentialsJSON,
		})
		if err != nil {
			return nil, noop, err
		}
		return src, noop, nil
	}
}

func openArchive(ctx context.Context, cfg *config.Config) *archive.Archive {
	if cfg.Archive.DSN == "" {
		fatalf("SCORECARD_ARCHIVE_DSN is not set")
	}
	store, err := archive.Open(ctx, cfg.Archive.DSN, archive.WithSchema(cfg.Archive.Schema))
	if err != nil {
		fatalf("Failed to open archive: %v", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		fatalf("%v", err)
	}
	return store
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
