package compose

import (
	"context"

	"github.com/cycle13/weather-map-service/internal/catalog"
)

var (
	qpfLevels = []float64{0.1, 10, 25, 50, 100, 250}
	qpfColors = []string{"#88F492", "#00A929", "#2AB8FF", "#1202FC", "#FF04F4", "#850C3E"}
)

func qpfLegend() []LegendEntry {
	return []LegendEntry{
		{Label: "0.1~10mm", Color: qpfColors[0]},
		{Label: "10~25mm", Color: qpfColors[1]},
		{Label: "25~50mm", Color: qpfColors[2]},
		{Label: "50~100mm", Color: qpfColors[3]},
		{Label: "100~250mm", Color: qpfColors[4]},
		{Label: ">250mm", Color: qpfColors[5]},
	}
}

// composePrecipitation builds the 24-hour accumulated precipitation product.
// Accumulations keep their raw values, the discrete level bins handle the
// dry areas.
func (c *Composer) composePrecipitation(ctx context.Context, entry *catalog.Analysis, req Request, filename string) (*Scene, error) {
	model := modelOrDefault(req.Model, defaultGlobalModel)
	paths, err := entry.FieldPaths(model)
	if err != nil {
		return nil, err
	}

	rain, err := c.fetch(ctx, paths[0], filename)
	if err != nil {
		return nil, err
	}

	center, width := req.window()
	return &Scene{
		Analysis:   entry.ID,
		Model:      catalog.CanonicalModel(model),
		Filename:   filename,
		Title:      buildTitle(entry.Title, catalog.CanonicalModel(model), rain.InitTime, req.ForecastHour, 24),
		Projection: albersProjection(center),
		Extent:     squareExtent(center, width),
		Basemap:    &Basemap{Boundaries: "province", EdgeColor: "darkcyan", LineWidth: 1, Land: true},
		LogoAlpha:  0.7,
		Layers: []Layer{{
			Kind:   LayerMesh,
			Name:   "rain24",
			Source: paths[0],
			Grid:   rain,
			Style:  &Style{Levels: qpfLevels, Colors: qpfColors, Extend: "max"},
		}},
		Legend:      qpfLegend(),
		GeneratedAt: c.clock.Now().UTC(),
	}, nil
}
