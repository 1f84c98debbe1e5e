// Package compose turns plot requests into renderer-ready scene documents.
// Each analysis has a recipe: resolve the model's data directories through
// the catalog, retrieve the grids, prepare them, and assemble the scene with
// the product's projection, extent, and styling.
package compose

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/cycle13/weather-map-service/internal/catalog"
	"github.com/cycle13/weather-map-service/internal/field"
)

// Analysis IDs with composition recipes, matching the embedded catalog.
const (
	AnalysisReflectivity           = "composite-reflectivity-and-wind"
	AnalysisReflectivityComparison = "composite-reflectivity-comparison"
	AnalysisPrecipitation24h       = "precipitation-24h"
	AnalysisSynoptic500            = "synoptic-500hpa"
)

// requiredPaths is the number of leading table entries each recipe may read
// from a model row. Rows may list more; extras are ignored.
var requiredPaths = map[string]int{
	AnalysisReflectivity:           3,
	AnalysisReflectivityComparison: 3,
	AnalysisPrecipitation24h:       1,
	AnalysisSynoptic500:            4,
}

// RequiredPaths reports how many data directories the analysis's recipe reads
// from a model row, and whether the analysis has a recipe at all.
func RequiredPaths(analysis string) (int, bool) {
	n, ok := requiredPaths[catalog.CanonicalAnalysis(analysis)]
	return n, ok
}

// Composer builds scenes from plot requests.
type Composer struct {
	catalog    *catalog.Catalog
	provider   GridProvider
	clock      clockwork.Clock
	cycleHours int
	logger     *slog.Logger
}

// NewComposer wires a composer. cycleHours is the run cadence assumed when a
// request omits its initial time.
func NewComposer(cat *catalog.Catalog, provider GridProvider, clock clockwork.Clock, cycleHours int, logger *slog.Logger) *Composer {
	return &Composer{
		catalog:    cat,
		provider:   provider,
		clock:      clock,
		cycleHours: cycleHours,
		logger:     logger,
	}
}

// Compose resolves the request against the catalog and dispatches it to the
// analysis recipe.
func (c *Composer) Compose(ctx context.Context, req Request) (*Scene, error) {
	entry, err := c.catalog.Find(req.Analysis)
	if err != nil {
		return nil, err
	}

	run, err := catalog.ParseInitialTime(req.InitTime)
	if err != nil {
		return nil, err
	}
	if run.IsZero() {
		run = catalog.LatestRun(c.clock.Now(), c.cycleHours)
	}
	filename, err := catalog.Filename(run, req.ForecastHour)
	if err != nil {
		return nil, err
	}

	switch entry.ID {
	case AnalysisReflectivity:
		return c.composeReflectivity(ctx, entry, req, filename)
	case AnalysisReflectivityComparison:
		return c.composeReflectivityComparison(ctx, entry, req, filename)
	case AnalysisPrecipitation24h:
		return c.composePrecipitation(ctx, entry, req, filename)
	case AnalysisSynoptic500:
		return c.composeSynoptic(ctx, entry, req, filename)
	default:
		return nil, fmt.Errorf("analysis %q has no composition recipe", entry.ID)
	}
}

// fetch retrieves one grid, wrapping errors with the file identity.
func (c *Composer) fetch(ctx context.Context, directory, filename string) (*field.Grid, error) {
	grid, err := c.provider.ModelGrid(ctx, directory, filename)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s/%s: %w", directory, filename, err)
	}
	c.logger.Debug("retrieved grid", "directory", directory, "filename", filename)
	return grid, nil
}

// fetchWind retrieves and pairs the U and V components of a wind field.
func (c *Composer) fetchWind(ctx context.Context, uDir, vDir, filename string) (*field.Wind, error) {
	u, err := c.fetch(ctx, uDir, filename)
	if err != nil {
		return nil, err
	}
	v, err := c.fetch(ctx, vDir, filename)
	if err != nil {
		return nil, err
	}
	wind := &field.Wind{U: u, V: v}
	if err := wind.Validate(); err != nil {
		return nil, fmt.Errorf("wind %s: %w", filename, err)
	}
	return wind, nil
}
