// Package field holds the gridded data model shared by retrieval and scene
// composition. Grids are regular latitude/longitude rasters; masked samples
// are NaN in memory and null on the wire.
package field

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Grid is a regular latitude/longitude gridded field. Values is row-major:
// Values[i][j] holds the sample at (Lat[i], Lon[j]).
type Grid struct {
	Lon      []float64
	Lat      []float64
	Values   [][]float64
	InitTime time.Time
}

// Dims returns the grid shape as (ny, nx).
func (g *Grid) Dims() (int, int) { return len(g.Lat), len(g.Lon) }

// Validate checks coordinate and value consistency: non-empty axes and one
// row of len(Lon) samples per latitude.
func (g *Grid) Validate() error {
	ny, nx := g.Dims()
	if ny == 0 || nx == 0 {
		return fmt.Errorf("grid has empty axes (%dx%d)", ny, nx)
	}
	if len(g.Values) != ny {
		return fmt.Errorf("grid has %d value rows, want %d", len(g.Values), ny)
	}
	for i, row := range g.Values {
		if len(row) != nx {
			return fmt.Errorf("grid row %d has %d values, want %d", i, len(row), nx)
		}
	}
	return nil
}

// MaskSentinel replaces exact occurrences of sentinel with NaN, in place.
func (g *Grid) MaskSentinel(sentinel float64) {
	for _, row := range g.Values {
		for j, v := range row {
			if v == sentinel {
				row[j] = math.NaN()
			}
		}
	}
}

// MaskBelow replaces samples smaller than min with NaN, in place. Samples
// already NaN stay NaN.
func (g *Grid) MaskBelow(min float64) {
	for _, row := range g.Values {
		for j, v := range row {
			if v < min {
				row[j] = math.NaN()
			}
		}
	}
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	if g == nil {
		return nil
	}
	out := &Grid{
		Lon:      append([]float64(nil), g.Lon...),
		Lat:      append([]float64(nil), g.Lat...),
		InitTime: g.InitTime,
	}
	if g.Values != nil {
		out.Values = make([][]float64, len(g.Values))
		for i, row := range g.Values {
			out.Values[i] = append([]float64(nil), row...)
		}
	}
	return out
}

// gridJSON is the wire form of Grid. NaN has no JSON representation, so
// masked samples travel as null.
type gridJSON struct {
	Lon      []float64    `json:"lon"`
	Lat      []float64    `json:"lat"`
	Values   [][]*float64 `json:"values"`
	InitTime time.Time    `json:"init_time"`
}

func (g *Grid) MarshalJSON() ([]byte, error) {
	wire := gridJSON{
		Lon:      g.Lon,
		Lat:      g.Lat,
		Values:   make([][]*float64, len(g.Values)),
		InitTime: g.InitTime,
	}
	for i, row := range g.Values {
		wireRow := make([]*float64, len(row))
		for j, v := range row {
			if !math.IsNaN(v) {
				v := v
				wireRow[j] = &v
			}
		}
		wire.Values[i] = wireRow
	}
	return json.Marshal(wire)
}

func (g *Grid) UnmarshalJSON(data []byte) error {
	var wire gridJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	g.Lon = wire.Lon
	g.Lat = wire.Lat
	g.InitTime = wire.InitTime
	g.Values = make([][]float64, len(wire.Values))
	for i, row := range wire.Values {
		vals := make([]float64, len(row))
		for j, p := range row {
			if p == nil {
				vals[j] = math.NaN()
			} else {
				vals[j] = *p
			}
		}
		g.Values[i] = vals
	}
	return nil
}

// Wind pairs the U and V components of a vector field.
type Wind struct {
	U *Grid `json:"u"`
	V *Grid `json:"v"`
}

// Validate checks both components individually and against each other.
func (w Wind) Validate() error {
	if w.U == nil || w.V == nil {
		return fmt.Errorf("wind is missing a component")
	}
	if err := w.U.Validate(); err != nil {
		return fmt.Errorf("u component: %w", err)
	}
	if err := w.V.Validate(); err != nil {
		return fmt.Errorf("v component: %w", err)
	}
	uy, ux := w.U.Dims()
	vy, vx := w.V.Dims()
	if uy != vy || ux != vx {
		return fmt.Errorf("wind components disagree on shape: %dx%d vs %dx%d", uy, ux, vy, vx)
	}
	return nil
}
