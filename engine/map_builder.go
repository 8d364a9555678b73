package engine

import (
	"log"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/spektr-org/scorecard/schema"
)

// ============================================================================
// MAP BUILDER — Marker layer with extent and centroid
// ============================================================================
// Markers are projected into a go-geom MultiPoint (X = lon, Y = lat) to
// compute the bounding box and centroid handed to the map widget alongside
// the configured center and zoom.
// ============================================================================

// BuildMap assembles the Overview map layer.
func BuildMap(markers []Marker, center Coordinates, zoom int) *MapConfig {
	cfg := &MapConfig{
		Center:  center,
		Zoom:    zoom,
		Markers: markers,
		Legend:  gradeLegend(),
	}
	if len(markers) == 0 {
		return cfg
	}

	coords := make([]geom.Coord, 0, len(markers))
	for _, m := range markers {
		coords = append(coords, geom.Coord{m.Lon, m.Lat})
	}
	points := geom.NewMultiPoint(geom.XY).MustSetCoords(coords)

	b := points.Bounds()
	cfg.Bounds = &MapBounds{
		West:  b.Min(0),
		South: b.Min(1),
		East:  b.Max(0),
		North: b.Max(1),
	}

	c, err := xy.Centroid(points)
	if err != nil {
		log.Printf("⚠️ Scorecard: map centroid unavailable: %v", err)
		return cfg
	}
	cfg.Centroid = &Coordinates{Lat: c[1], Lon: c[0]}
	return cfg
}

func gradeLegend() []LegendItem {
	grades := schema.Grades()
	items := make([]LegendItem, 0, len(grades))
	for _, g := range grades {
		items = append(items, LegendItem{Grade: g, Label: g.Label(), Color: g.Color()})
	}
	return items
}
