package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	analysisReflectivity = "composite-reflectivity-and-wind"
	analysisComparison   = "composite-reflectivity-comparison"
	analysisQPF          = "precipitation-24h"
	analysisSynoptic     = "synoptic-500hpa"
)

func TestDefault_Tables(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{
		analysisReflectivity,
		analysisComparison,
		analysisQPF,
		analysisSynoptic,
	}, c.Analyses())

	t.Run("reflectivity models", func(t *testing.T) {
		a, err := c.Find(analysisReflectivity)
		require.NoError(t, err)
		assert.Equal(t, "CREF (dBz), 850-hPa Winds", a.Title)
		assert.Equal(t, []string{"SHANGHAI", "BEIJING", "GRAPES_MESO", "GRAPES_3KM"}, a.ModelNames())

		paths, err := c.FieldPaths(analysisReflectivity, "SHANGHAI")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"SHANGHAI_HR/COMPOSITE_REFLECTIVITY/ENTIRE_ATMOSPHERE",
			"SHANGHAI_HR/UGRD/850",
			"SHANGHAI_HR/VGRD/850",
		}, paths)

		paths, err = c.FieldPaths(analysisReflectivity, "GRAPES_3KM")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"GRAPES_3KM/RADAR_COMBINATION_REFLECTIVITY",
			"GRAPES_3KM/UGRD/850",
			"GRAPES_3KM/VGRD/850",
		}, paths)
	})

	t.Run("comparison shares the reflectivity table", func(t *testing.T) {
		single, err := c.Find(analysisReflectivity)
		require.NoError(t, err)
		compare, err := c.Find(analysisComparison)
		require.NoError(t, err)
		assert.Equal(t, single.Models(), compare.Models())
	})

	t.Run("precipitation models", func(t *testing.T) {
		paths, err := c.FieldPaths(analysisQPF, "ECMWF")
		require.NoError(t, err)
		assert.Equal(t, []string{"ECMWF_HR/RAIN24"}, paths)
	})

	t.Run("synoptic models", func(t *testing.T) {
		a, err := c.Find(analysisSynoptic)
		require.NoError(t, err)
		assert.Equal(t, []string{"ECMWF", "GRAPES", "NCEP"}, a.ModelNames())

		paths, err := c.FieldPaths(analysisSynoptic, "NCEP")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"NCEP_GFS/HGT/500",
			"NCEP_GFS/UGRD/850",
			"NCEP_GFS/VGRD/850",
			"NCEP_GFS/PRMSL",
		}, paths)
	})
}

func TestFieldPaths_CaseAndWhitespace(t *testing.T) {
	c := Default()

	want, err := c.FieldPaths(analysisSynoptic, "ECMWF")
	require.NoError(t, err)

	for _, model := range []string{"ecmwf", " ECMWF ", "Ecmwf", "\tecmwf\n"} {
		got, err := c.FieldPaths(analysisSynoptic, model)
		require.NoError(t, err, "model %q", model)
		assert.Equal(t, want, got, "model %q", model)
	}

	got, err := c.FieldPaths(" Synoptic-500hPa ", "ecmwf")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFieldPaths_UnknownModel(t *testing.T) {
	c := Default()

	_, err := c.FieldPaths(analysisQPF, "NCEP")
	require.Error(t, err)

	var unknown *UnknownModelError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, analysisQPF, unknown.Analysis)
	assert.Equal(t, "NCEP", unknown.Model)
	assert.Equal(t, []string{"ECMWF"}, unknown.Valid)
	assert.Contains(t, err.Error(), "choose one of: ECMWF")
}

func TestFieldPaths_UnknownAnalysis(t *testing.T) {
	c := Default()

	_, err := c.FieldPaths("vorticity-500hpa", "ECMWF")
	require.Error(t, err)

	var unknown *UnknownAnalysisError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "vorticity-500hpa", unknown.Analysis)
	assert.Contains(t, unknown.Valid, analysisSynoptic)
}

func TestFieldPaths_ReturnsCopy(t *testing.T) {
	c := Default()

	paths, err := c.FieldPaths(analysisQPF, "ECMWF")
	require.NoError(t, err)
	paths[0] = "mutated"

	again, err := c.FieldPaths(analysisQPF, "ECMWF")
	require.NoError(t, err)
	assert.Equal(t, []string{"ECMWF_HR/RAIN24"}, again)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty document",
			yaml:    "",
			wantErr: "no analyses",
		},
		{
			name:    "analysis without id",
			yaml:    "analyses:\n  - title: t\n    models:\n      - name: M\n        paths: [a/b]\n",
			wantErr: "empty id",
		},
		{
			name:    "analysis without models",
			yaml:    "analyses:\n  - id: a\n    models: []\n",
			wantErr: "no models",
		},
		{
			name:    "model without paths",
			yaml:    "analyses:\n  - id: a\n    models:\n      - name: M\n        paths: []\n",
			wantErr: "lists no paths",
		},
		{
			name:    "duplicate model after normalization",
			yaml:    "analyses:\n  - id: a\n    models:\n      - name: ecmwf\n        paths: [a/b]\n      - name: ECMWF\n        paths: [c/d]\n",
			wantErr: "duplicate model",
		},
		{
			name:    "duplicate analysis",
			yaml:    "analyses:\n  - id: a\n    models:\n      - name: M\n        paths: [a/b]\n  - id: A\n    models:\n      - name: M\n        paths: [a/b]\n",
			wantErr: "duplicate analysis",
		},
		{
			name:    "not yaml",
			yaml:    "{analyses: [",
			wantErr: "parse yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Same(t, Default(), c)
}

func TestLoad_OverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	override := `analyses:
  - id: precipitation-24h
    title: 24h accumulated QPF
    models:
      - name: ECMWF
        paths: [ECMWF_HR/RAIN24]
      - name: GRAPES
        paths: [GRAPES_GFS/RAIN24]
`
	require.NoError(t, os.WriteFile(path, []byte(override), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	paths, err := c.FieldPaths(analysisQPF, "grapes")
	require.NoError(t, err)
	assert.Equal(t, []string{"GRAPES_GFS/RAIN24"}, paths)

	assert.Equal(t, []string{analysisQPF}, c.Analyses())
}

func TestLoad_OverrideFailsSchema(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing analyses key", yaml: "products: []\n"},
		{name: "model paths not a list", yaml: "analyses:\n  - id: a\n    models:\n      - name: M\n        paths: a/b\n"},
		{name: "empty model name", yaml: "analyses:\n  - id: a\n    models:\n      - name: \"\"\n        paths: [a/b]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate")
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read catalog")
}
