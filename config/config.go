package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"github.com/spektr-org/scorecard/engine"
)

// Source kinds.
const (
	SourceSheets = "sheets"
	SourceXLSX   = "xlsx"
	SourceCSV    = "csv"
)

// Config holds every runtime setting.
type Config struct {
	Source  SourceConfig
	Engine  EngineConfig
	Server  ServerConfig
	Archive ArchiveConfig
}

// SourceConfig selects and locates the spreadsheet.
type SourceConfig struct {
	Kind            string // sheets, xlsx or csv
	SpreadsheetID   string
	SpreadsheetName string
	CredentialsJSON []byte // inline service account key; empty = application default
	XLSXPath        string
	CSVDir          string
}

// EngineConfig tunes loading and rendering.
type EngineConfig struct {
	LoadTimeout time.Duration
	ZeroFill    bool
	TopN        int
	MapLat      float64
	MapLon      float64
	MapZoom     int
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port string
}

// ArchiveConfig configures the optional report archive.
type ArchiveConfig struct {
	DSN    string // empty disables archiving
	Tag    string
	Schema string
}

// Load reads .env files (default ".env", missing files are ignored) and then
// the environment. Variables already set in the environment win.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)

	var bad []string
	num := func(key string, def float64) float64 {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			return def
		}
		v, err := cast.ToFloat64E(raw)
		if err != nil {
			bad = append(bad, key)
			return def
		}
		return v
	}
	boolean := func(key string) bool {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			return false
		}
		v, err := cast.ToBoolE(raw)
		if err != nil {
			bad = append(bad, key)
			return false
		}
		return v
	}

	lat, lon := engine.DefaultMapLat, engine.DefaultMapLon
	if center := strings.TrimSpace(os.Getenv("SCORECARD_MAP_CENTER")); center != "" {
		parts := strings.Split(center, ",")
		var errLat, errLon error
		if len(parts) == 2 {
			lat, errLat = cast.ToFloat64E(strings.TrimSpace(parts[0]))
			lon, errLon = cast.ToFloat64E(strings.TrimSpace(parts[1]))
		}
		if len(parts) != 2 || errLat != nil || errLon != nil {
			bad = append(bad, "SCORECARD_MAP_CENTER")
			lat, lon = engine.DefaultMapLat, engine.DefaultMapLon
		}
	}

	cfg := &Config{
		Source: SourceConfig{
			Kind:            strings.ToLower(getEnvOrDefault("SCORECARD_SOURCE", SourceSheets)),
			SpreadsheetID:   os.Getenv("SCORECARD_SPREADSHEET_ID"),
			SpreadsheetName: os.Getenv("SCORECARD_SPREADSHEET_NAME"),
			CredentialsJSON: []byte(os.Getenv("GOOGLE_SERVICE_ACCOUNT_CREDENTIALS")),
			XLSXPath:        os.Getenv("SCORECARD_XLSX_PATH"),
			CSVDir:          os.Getenv("SCORECARD_CSV_DIR"),
		},
		Engine: EngineConfig{
			LoadTimeout: time.Duration(num("SCORECARD_LOAD_TIMEOUT_SECONDS", engine.DefaultLoadTimeout.Seconds()) * float64(time.Second)),
			ZeroFill:    boolean("SCORECARD_ZERO_FILL"),
			TopN:        int(num("SCORECARD_TOP_N", engine.DefaultTopN)),
			MapLat:      lat,
			MapLon:      lon,
			MapZoom:     int(num("SCORECARD_MAP_ZOOM", engine.DefaultMapZoom)),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Archive: ArchiveConfig{
			DSN:    os.Getenv("SCORECARD_ARCHIVE_DSN"),
			Tag:    os.Getenv("SCORECARD_ARCHIVE_TAG"),
			Schema: getEnvOrDefault("SCORECARD_ARCHIVE_SCHEMA", "scorecard"),
		},
	}

	if len(bad) > 0 {
		return cfg, fmt.Errorf("invalid value for %s", strings.Join(bad, ", "))
	}
	return cfg, nil
}

// Validate checks that the selected source is fully located.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceSheets:
	case SourceXLSX:
		if c.Source.XLSXPath == "" {
			return fmt.Errorf("source %s needs SCORECARD_XLSX_PATH or --file", SourceXLSX)
		}
	case SourceCSV:
		if c.Source.CSVDir == "" {
			return fmt.Errorf("source %s needs SCORECARD_CSV_DIR or --dir", SourceCSV)
		}
	default:
		return fmt.Errorf("unknown source %q (want %s, %s or %s)", c.Source.Kind, SourceSheets, SourceXLSX, SourceCSV)
	}
	if c.Engine.TopN < 1 {
		return fmt.Errorf("top N must be at least 1, got %d", c.Engine.TopN)
	}
	return nil
}

// LoadOptions converts the engine settings for engine.Load.
func (c *Config) LoadOptions() []engine.LoadOption {
	opts := []engine.LoadOption{engine.WithLoadTimeout(c.Engine.LoadTimeout)}
	if c.Engine.ZeroFill {
		opts = append(opts, engine.WithZeroFill())
	}
	return opts
}

// RenderOptions converts the engine settings for engine.RenderPage.
func (c *Config) RenderOptions() []engine.RenderOption {
	return []engine.RenderOption{
		engine.WithTopN(c.Engine.TopN),
		engine.WithMapCenter(c.Engine.MapLat, c.Engine.MapLon, c.Engine.MapZoom),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
