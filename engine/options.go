package engine

import "time"

// ============================================================================
// ENGINE OPTIONS — Functional options for Load() and rendering
// ============================================================================

// DefaultLoadTimeout bounds a whole snapshot load.
const DefaultLoadTimeout = 30 * time.Second

// DefaultTopN is the size of the Overview ranking table.
const DefaultTopN = 10

// Default map framing: centered on Bangladesh.
const (
	DefaultMapLat  = 23.6850
	DefaultMapLon  = 90.3563
	DefaultMapZoom = 7
)

// LoadOption configures snapshot loading via functional options pattern.
type LoadOption func(*loadConfig)

type loadConfig struct {
	Timeout     time.Duration
	ZeroFill    bool // empty numeric/indicator cells read as 0
	Concurrency int  // worksheets fetched at once
}

// WithLoadTimeout bounds the whole load, all worksheets included.
func WithLoadTimeout(d time.Duration) LoadOption {
	return func(c *loadConfig) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

// WithZeroFill reads empty score and indicator cells as 0 instead of
// excluding the row. Names, grades and coordinates are never filled.
func WithZeroFill() LoadOption {
	return func(c *loadConfig) {
		c.ZeroFill = true
	}
}

// WithFetchConcurrency limits how many worksheets are fetched at once.
func WithFetchConcurrency(n int) LoadOption {
	return func(c *loadConfig) {
		if n > 0 {
			c.Concurrency = n
		}
	}
}

func applyLoadOptions(opts []LoadOption) *loadConfig {
	cfg := &loadConfig{
		Timeout:     DefaultLoadTimeout,
		Concurrency: 4,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// RenderOption configures page rendering.
type RenderOption func(*renderConfig)

type renderConfig struct {
	TopN      int
	MapCenter Coordinates
	MapZoom   int
	About     string
}

// WithTopN sets the size of the Overview ranking table.
func WithTopN(n int) RenderOption {
	return func(c *renderConfig) {
		if n > 0 {
			c.TopN = n
		}
	}
}

// WithMapCenter sets the initial map framing.
func WithMapCenter(lat, lon float64, zoom int) RenderOption {
	return func(c *renderConfig) {
		c.MapCenter = Coordinates{Lat: lat, Lon: lon}
		if zoom > 0 {
			c.MapZoom = zoom
		}
	}
}

// WithAboutText replaces the About view text.
func WithAboutText(text string) RenderOption {
	return func(c *renderConfig) {
		if text != "" {
			c.About = text
		}
	}
}

func applyRenderOptions(opts []RenderOption) *renderConfig {
	cfg := &renderConfig{
		TopN:      DefaultTopN,
		MapCenter: Coordinates{Lat: DefaultMapLat, Lon: DefaultMapLon},
		MapZoom:   DefaultMapZoom,
		About:     defaultAboutText,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
