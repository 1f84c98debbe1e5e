package compose

import (
	"context"
	"fmt"

	"github.com/cycle13/weather-map-service/internal/catalog"
)

var (
	synopticExtent = Extent{West: 50, East: 150, South: 0, North: 65}
	synopticCenter = Point{Lon: 100, Lat: 45}
)

// composeSynoptic builds the East Asia 500-hPa height, 850-hPa wind, and
// mean sea level pressure chart. The extent is fixed, the request's map
// window is ignored.
func (c *Composer) composeSynoptic(ctx context.Context, entry *catalog.Analysis, req Request, filename string) (*Scene, error) {
	model := modelOrDefault(req.Model, defaultGlobalModel)
	paths, err := entry.FieldPaths(model)
	if err != nil {
		return nil, err
	}
	if len(paths) < 4 {
		return nil, fmt.Errorf("model %s lists %d paths, product needs 4", catalog.CanonicalModel(model), len(paths))
	}

	gh500, err := c.fetch(ctx, paths[0], filename)
	if err != nil {
		return nil, err
	}
	wind, err := c.fetchWind(ctx, paths[1], paths[2], filename)
	if err != nil {
		return nil, err
	}
	mslp, err := c.fetch(ctx, paths[3], filename)
	if err != nil {
		return nil, err
	}

	// Layers are listed bottom-up: pressure fill, height contours, wind barbs.
	layers := []Layer{
		{
			Kind:   LayerContourFill,
			Name:   "mslp",
			Source: paths[3],
			Grid:   mslp,
			Style:  &Style{ColorbarLabel: "Mean sea level pressure"},
		},
		{
			Kind:   LayerContour,
			Name:   "gh500",
			Source: paths[0],
			Grid:   gh500,
		},
		{
			Kind:        LayerBarbs,
			Name:        "wind850",
			Source:      paths[1],
			Wind:        wind,
			RegridShape: 20,
		},
	}

	return &Scene{
		Analysis:    entry.ID,
		Model:       catalog.CanonicalModel(model),
		Filename:    filename,
		Title:       buildTitle(entry.Title, catalog.CanonicalModel(model), gh500.InitTime, req.ForecastHour, 0),
		Projection:  albersProjection(synopticCenter),
		Extent:      synopticExtent,
		LogoAlpha:   0.7,
		Layers:      layers,
		GeneratedAt: c.clock.Now().UTC(),
	}, nil
}
