package compose

import (
	"context"
	"fmt"
	"time"

	"github.com/cycle13/weather-map-service/internal/catalog"
	"github.com/cycle13/weather-map-service/internal/field"
)

// maskReflectivity hides the missing-value sentinel and sub-threshold echoes
// so the mesh layer renders only meaningful reflectivity.
func maskReflectivity(g *field.Grid) {
	g.MaskSentinel(9999)
	g.MaskBelow(10)
}

func crefStyle() *Style {
	return &Style{
		Colormap:      "NWSReflectivity",
		ColormapStart: 12,
		ColormapStep:  4,
		ColorbarLabel: "Composite reflectivity",
	}
}

func provinceBasemap() *Basemap {
	return &Basemap{Boundaries: "province", EdgeColor: "black", LineWidth: 2}
}

// composeReflectivity builds the single-model composite reflectivity product,
// optionally overlaid with 850-hPa winds.
func (c *Composer) composeReflectivity(ctx context.Context, entry *catalog.Analysis, req Request, filename string) (*Scene, error) {
	model := modelOrDefault(req.Model, defaultReflectivityModel)
	paths, err := entry.FieldPaths(model)
	if err != nil {
		return nil, err
	}

	layers, initTime, err := c.reflectivityLayers(ctx, paths, filename, req.DrawWind)
	if err != nil {
		return nil, err
	}

	center, width := req.window()
	return &Scene{
		Analysis:    entry.ID,
		Model:       catalog.CanonicalModel(model),
		Filename:    filename,
		Title:       buildTitle(entry.Title, catalog.CanonicalModel(model), initTime, req.ForecastHour, 0),
		Projection:  albersProjection(center),
		Extent:      mesoExtent(center, width),
		Basemap:     provinceBasemap(),
		Layers:      layers,
		GeneratedAt: c.clock.Now().UTC(),
	}, nil
}

// composeReflectivityComparison builds one panel per catalog model. Any model
// missing a grid aborts the whole comparison.
func (c *Composer) composeReflectivityComparison(ctx context.Context, entry *catalog.Analysis, req Request, filename string) (*Scene, error) {
	var (
		panels   []Panel
		initTime time.Time
	)
	for _, m := range entry.Models() {
		layers, panelInit, err := c.reflectivityLayers(ctx, m.Paths, filename, req.DrawWind)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", m.Name, err)
		}
		if len(panels) == 0 {
			initTime = panelInit
		}
		panels = append(panels, Panel{Model: m.Name, Label: m.Name, Layers: layers})
	}

	center, width := req.window()
	return &Scene{
		Analysis:    entry.ID,
		Filename:    filename,
		Title:       buildTitle(entry.Title, "", initTime, req.ForecastHour, 0),
		Projection:  albersProjection(center),
		Extent:      mesoExtent(center, width),
		Basemap:     provinceBasemap(),
		Panels:      panels,
		GeneratedAt: c.clock.Now().UTC(),
	}, nil
}

// reflectivityLayers retrieves and prepares the layers shared by both
// reflectivity products: a masked composite reflectivity mesh, plus an
// optional 850-hPa wind quiver. The returned time is the initial time carried
// by the retrieved reflectivity grid.
func (c *Composer) reflectivityLayers(ctx context.Context, paths []string, filename string, drawWind bool) ([]Layer, time.Time, error) {
	cref, err := c.fetch(ctx, paths[0], filename)
	if err != nil {
		return nil, time.Time{}, err
	}
	maskReflectivity(cref)

	layers := []Layer{{
		Kind:   LayerMesh,
		Name:   "cref",
		Source: paths[0],
		Grid:   cref,
		Style:  crefStyle(),
	}}

	if drawWind {
		if len(paths) < 3 {
			return nil, time.Time{}, fmt.Errorf("wind overlay needs 3 paths, table lists %d", len(paths))
		}
		wind, err := c.fetchWind(ctx, paths[1], paths[2], filename)
		if err != nil {
			return nil, time.Time{}, err
		}
		layers = append(layers, Layer{
			Kind:        LayerQuiver,
			Name:        "wind850",
			Source:      paths[1],
			Wind:        wind,
			RegridShape: 25,
		})
	}

	return layers, cref.InitTime, nil
}
