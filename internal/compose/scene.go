package compose

import (
	"time"

	"github.com/cycle13/weather-map-service/internal/field"
)

// Layer kinds understood by scene renderers.
const (
	LayerMesh        = "pcolormesh"
	LayerContour     = "contour"
	LayerContourFill = "contour-fill"
	LayerQuiver      = "quiver"
	LayerBarbs       = "barbs"
)

// Point is a lon/lat coordinate in degrees.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Extent is a geographic bounding box in degrees.
type Extent struct {
	West  float64 `json:"west"`
	East  float64 `json:"east"`
	South float64 `json:"south"`
	North float64 `json:"north"`
}

// Projection carries the map projection parameters for a scene. Only the
// parameters travel; the projection math belongs to the renderer.
type Projection struct {
	Kind              string     `json:"kind"`
	Center            Point      `json:"center"`
	StandardParallels [2]float64 `json:"standard_parallels"`
}

// Style is styling data for one layer: either a named color table with start
// and step, or explicit level edges with one color per band.
type Style struct {
	Colormap      string    `json:"colormap,omitempty"`
	ColormapStart float64   `json:"colormap_start,omitempty"`
	ColormapStep  float64   `json:"colormap_step,omitempty"`
	Levels        []float64 `json:"levels,omitempty"`
	Colors        []string  `json:"colors,omitempty"`
	Extend        string    `json:"extend,omitempty"`
	ColorbarLabel string    `json:"colorbar_label,omitempty"`
}

// Layer is one drawable of a scene. Field layers carry Grid, vector layers
// carry Wind.
type Layer struct {
	Kind        string      `json:"kind"`
	Name        string      `json:"name"`
	Source      string      `json:"source"`
	Grid        *field.Grid `json:"grid,omitempty"`
	Wind        *field.Wind `json:"wind,omitempty"`
	RegridShape int         `json:"regrid_shape,omitempty"`
	Style       *Style      `json:"style,omitempty"`
}

// Basemap selects the reference geometry drawn under the data.
type Basemap struct {
	Boundaries string  `json:"boundaries,omitempty"`
	EdgeColor  string  `json:"edge_color,omitempty"`
	LineWidth  float64 `json:"line_width,omitempty"`
	Land       bool    `json:"land,omitempty"`
}

// LegendEntry labels one filled color in a legend box.
type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Panel is one member of a multi-panel comparison scene.
type Panel struct {
	Model  string  `json:"model"`
	Label  string  `json:"label"`
	Layers []Layer `json:"layers"`
}

// Scene is the renderer-facing document for one map product. Single-model
// products populate Layers; comparisons populate Panels.
type Scene struct {
	Analysis    string        `json:"analysis"`
	Model       string        `json:"model,omitempty"`
	Filename    string        `json:"filename"`
	Title       Title         `json:"title"`
	Projection  Projection    `json:"projection"`
	Extent      Extent        `json:"extent"`
	Basemap     *Basemap      `json:"basemap,omitempty"`
	LogoAlpha   float64       `json:"logo_alpha,omitempty"`
	Layers      []Layer       `json:"layers,omitempty"`
	Panels      []Panel       `json:"panels,omitempty"`
	Legend      []LegendEntry `json:"legend,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// albersProjection aims the equal-area projection every product uses at the
// scene's map center, with standard parallels at 30 and 60 north.
func albersProjection(center Point) Projection {
	return Projection{
		Kind:              "albers-equal-area",
		Center:            center,
		StandardParallels: [2]float64{30, 60},
	}
}

// mesoExtent frames a mesoscale window: the full width in longitude, two
// thirds of it in latitude.
func mesoExtent(center Point, width float64) Extent {
	return Extent{
		West:  center.Lon - width/2,
		East:  center.Lon + width/2,
		South: center.Lat - width/3,
		North: center.Lat + width/3,
	}
}

// squareExtent frames an equal-degrees window.
func squareExtent(center Point, width float64) Extent {
	return Extent{
		West:  center.Lon - width/2,
		East:  center.Lon + width/2,
		South: center.Lat - width/2,
		North: center.Lat + width/2,
	}
}
