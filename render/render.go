package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/spektr-org/scorecard/engine"
)

// ============================================================================
// PNG RENDERER — ChartConfig → image
// ============================================================================
// Draws the engine's render-ready charts with gonum/plot for offline reports.
// Bar, horizontal bar and grouped bar charts map directly. gonum/plot has no
// pie plotter, so pie charts are drawn as colored bars.
// ============================================================================

// ErrEmptyChart is returned for a chart with no data points.
var ErrEmptyChart = errors.New("chart has no data")

// Default image size.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

var barWidth = vg.Points(18)

// WriteChart draws cfg as PNG to w.
func WriteChart(w io.Writer, cfg *engine.ChartConfig) error {
	p, err := buildPlot(cfg)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, "png")
	if err != nil {
		return fmt.Errorf("encode %q: %w", cfg.Title, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveChart draws cfg to a file. The format follows the extension.
func SaveChart(path string, cfg *engine.ChartConfig) error {
	p, err := buildPlot(cfg)
	if err != nil {
		return err
	}
	if err := p.Save(DefaultWidth, DefaultHeight, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// SavePage writes every chart section of page to dir as <key>.png and
// returns the written paths. Failed sections and empty charts are skipped.
func SavePage(dir string, page *engine.Page) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	var paths []string
	for _, s := range page.Sections {
		if s.Type != engine.SectionChart || s.Failed() || s.Chart == nil {
			continue
		}
		path := filepath.Join(dir, FileName(string(page.View), s.Key)+".png")
		if err := SaveChart(path, s.Chart); err != nil {
			if errors.Is(err, ErrEmptyChart) {
				continue
			}
			return paths, err
		}
		paths = append(paths, path)
	}
	log.Printf("📊 Scorecard: wrote %d chart images to %s", len(paths), dir)
	return paths, nil
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// FileName turns a view and section key into a lowercase file stem
// ("Overview", "grade_pie" → "overview_grade_pie").
func FileName(parts ...string) string {
	joined := strings.ToLower(strings.Join(parts, "_"))
	return strings.Trim(unsafeChars.ReplaceAllString(joined, "_"), "_")
}

// ============================================================================
// PLOT CONSTRUCTION
// ============================================================================

func buildPlot(cfg *engine.ChartConfig) (*plot.Plot, error) {
	if cfg == nil || !hasData(cfg) {
		return nil, ErrEmptyChart
	}

	p := plot.New()
	p.Title.Text = cfg.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)

	horizontal := cfg.ChartType == engine.ChartBarHorizontal
	if horizontal {
		p.X.Label.Text = cfg.YAxis
		p.Y.Label.Text = cfg.XAxis
	} else {
		p.X.Label.Text = cfg.XAxis
		p.Y.Label.Text = cfg.YAxis
	}

	labels := categoryLabels(cfg)
	var err error
	switch {
	case len(cfg.Series) > 1:
		err = addGrouped(p, cfg, labels, horizontal)
	default:
		err = addSingle(p, cfg, labels, horizontal)
	}
	if err != nil {
		return nil, err
	}

	if horizontal {
		p.NominalY(labels...)
	} else {
		p.NominalX(labels...)
		if len(labels) > 6 {
			p.X.Tick.Label.Rotation = math.Pi / 4
			p.X.Tick.Label.XAlign = draw.XRight
			p.X.Tick.Label.YAlign = draw.YCenter
		}
	}
	if cfg.ShowGrid {
		p.Add(plotter.NewGrid())
	}
	if horizontal {
		p.X.Min = 0
	} else {
		p.Y.Min = 0
	}
	return p, nil
}

// addSingle draws one bar per point so each can carry its own color.
func addSingle(p *plot.Plot, cfg *engine.ChartConfig, labels []string, horizontal bool) error {
	series := cfg.Series[0]
	for i, pt := range series.Data {
		bar, err := plotter.NewBarChart(plotter.Values{pt.Value}, barWidth)
		if err != nil {
			return fmt.Errorf("bar %q: %w", pt.Label, err)
		}
		bar.XMin = float64(i)
		bar.Horizontal = horizontal
		bar.LineStyle.Width = vg.Length(0)
		bar.Color = pickColor(i, pt.Color, series.Color, cfg.Colors)
		p.Add(bar)
		if cfg.ShowLegend || cfg.ChartType == engine.ChartPie {
			p.Legend.Add(labels[i], bar)
		}
	}
	return nil
}

// addGrouped draws each series side by side around the category position.
func addGrouped(p *plot.Plot, cfg *engine.ChartConfig, labels []string, horizontal bool) error {
	n := len(cfg.Series)
	width := barWidth
	if n > 2 {
		width = barWidth * 2 / vg.Length(n)
	}

	for si, series := range cfg.Series {
		values := make(plotter.Values, len(labels))
		for _, pt := range series.Data {
			if i := indexOf(labels, pt.Label); i >= 0 {
				values[i] = pt.Value
			}
		}
		bar, err := plotter.NewBarChart(values, width)
		if err != nil {
			return fmt.Errorf("series %q: %w", series.Name, err)
		}
		bar.Horizontal = horizontal
		bar.LineStyle.Width = vg.Length(0)
		bar.Offset = width * vg.Length(float64(si)-float64(n-1)/2)
		bar.Color = pickColor(si, series.Color, "", cfg.Colors)
		p.Add(bar)
		p.Legend.Add(series.Name, bar)
	}
	p.Legend.Top = true
	return nil
}

// categoryLabels lists point labels in first-seen order across all series.
func categoryLabels(cfg *engine.ChartConfig) []string {
	var labels []string
	seen := make(map[string]bool)
	for _, s := range cfg.Series {
		for _, pt := range s.Data {
			if !seen[pt.Label] {
				seen[pt.Label] = true
				labels = append(labels, pt.Label)
			}
		}
	}
	return labels
}

func hasData(cfg *engine.ChartConfig) bool {
	for _, s := range cfg.Series {
		if len(s.Data) > 0 {
			return true
		}
	}
	return false
}

func indexOf(items []string, item string) int {
	for i, s := range items {
		if s == item {
			return i
		}
	}
	return -1
}

// pickColor resolves the first named color that is known, falling back to
// the palette color at index i.
func pickColor(i int, point, series string, palette []string) color.Color {
	candidates := []string{point, series}
	if i < len(palette) {
		candidates = append(candidates, palette[i])
	}
	for _, name := range candidates {
		if c, ok := ParseColor(name); ok {
			return c
		}
	}
	return plotutil.Color(i)
}

// ParseColor resolves an SVG color name ("darkblue") or a #rrggbb hex value.
func ParseColor(name string) (color.Color, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, false
	}
	if c, ok := colornames.Map[name]; ok {
		return c, true
	}
	var r, g, b uint8
	if len(name) == 7 && name[0] == '#' {
		if _, err := fmt.Sscanf(name, "#%02x%02x%02x", &r, &g, &b); err == nil {
			return color.RGBA{R: r, G: g, B: b, A: 255}, true
		}
	}
	return nil, false
}
