package field

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrid() *Grid {
	return &Grid{
		Lon: []float64{110, 111, 112},
		Lat: []float64{30, 31},
		Values: [][]float64{
			{5, 9999, 42},
			{12, 8, 35},
		},
		InitTime: time.Date(2018, 4, 20, 8, 0, 0, 0, time.UTC),
	}
}

func TestGrid_Validate(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		assert.NoError(t, testGrid().Validate())
	})

	t.Run("empty axes", func(t *testing.T) {
		g := &Grid{}
		assert.ErrorContains(t, g.Validate(), "empty axes")
	})

	t.Run("row count mismatch", func(t *testing.T) {
		g := testGrid()
		g.Values = g.Values[:1]
		assert.ErrorContains(t, g.Validate(), "value rows")
	})

	t.Run("ragged row", func(t *testing.T) {
		g := testGrid()
		g.Values[1] = []float64{1, 2}
		assert.ErrorContains(t, g.Validate(), "row 1")
	})
}

func TestGrid_Masking(t *testing.T) {
	g := testGrid()

	g.MaskSentinel(9999)
	assert.True(t, math.IsNaN(g.Values[0][1]))
	assert.Equal(t, 5.0, g.Values[0][0], "non-sentinel values untouched")

	g.MaskBelow(10)
	assert.True(t, math.IsNaN(g.Values[0][0]), "5 dBZ masked")
	assert.True(t, math.IsNaN(g.Values[1][1]), "8 dBZ masked")
	assert.True(t, math.IsNaN(g.Values[0][1]), "sentinel stays masked")
	assert.Equal(t, 42.0, g.Values[0][2])
	assert.Equal(t, 12.0, g.Values[1][0])
}

func TestGrid_Clone(t *testing.T) {
	g := testGrid()
	c := g.Clone()

	c.Values[0][0] = -1
	c.Lon[0] = -1

	assert.Equal(t, 5.0, g.Values[0][0])
	assert.Equal(t, 110.0, g.Lon[0])
	assert.Equal(t, g.InitTime, c.InitTime)

	var nilGrid *Grid
	assert.Nil(t, nilGrid.Clone())
}

func TestGrid_JSONRoundTrip(t *testing.T) {
	g := testGrid()
	g.MaskSentinel(9999)

	data, err := json.Marshal(g)
	require.NoError(t, err)
	assert.Contains(t, string(data), "null", "masked samples travel as null")

	var back Grid
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, g.Lon, back.Lon)
	assert.Equal(t, g.Lat, back.Lat)
	assert.True(t, g.InitTime.Equal(back.InitTime))
	assert.True(t, math.IsNaN(back.Values[0][1]))
	assert.Equal(t, 42.0, back.Values[0][2])
}

func TestWind_Validate(t *testing.T) {
	u := testGrid()
	v := testGrid()

	assert.NoError(t, Wind{U: u, V: v}.Validate())

	t.Run("missing component", func(t *testing.T) {
		assert.ErrorContains(t, Wind{U: u}.Validate(), "missing a component")
	})

	t.Run("shape mismatch", func(t *testing.T) {
		small := &Grid{
			Lon:    []float64{110},
			Lat:    []float64{30},
			Values: [][]float64{{1}},
		}
		assert.ErrorContains(t, Wind{U: u, V: small}.Validate(), "disagree on shape")
	})
}
