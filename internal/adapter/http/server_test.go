package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/cycle13/weather-map-service/internal/adapter/http"
	"github.com/cycle13/weather-map-service/internal/catalog"
	"github.com/cycle13/weather-map-service/internal/compose"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockComposer struct {
	scene *compose.Scene
	err   error
	last  compose.Request
}

func (m *mockComposer) Compose(_ context.Context, req compose.Request) (*compose.Scene, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.scene, nil
}

func newTestServer(readyErr error) *httpadapter.Server {
	return newSceneServer(&mockComposer{scene: &compose.Scene{}}, readyErr)
}

func newSceneServer(composer *mockComposer, readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", catalog.Default(), composer, &mockReadiness{err: readyErr}, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("not ready yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCatalogEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/catalog", nil)

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Analyses []struct {
			ID     string `json:"id"`
			Title  string `json:"title"`
			Models []struct {
				Name  string   `json:"name"`
				Paths []string `json:"paths"`
			} `json:"models"`
		} `json:"analyses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Len(t, body.Analyses, 4)
	assert.Equal(t, "composite-reflectivity-and-wind", body.Analyses[0].ID)
	assert.Equal(t, "SHANGHAI", body.Analyses[0].Models[0].Name)
	assert.Equal(t,
		[]string{"SHANGHAI_HR/COMPOSITE_REFLECTIVITY/ENTIRE_ATMOSPHERE", "SHANGHAI_HR/UGRD/850", "SHANGHAI_HR/VGRD/850"},
		body.Analyses[0].Models[0].Paths)
	assert.Equal(t, "precipitation-24h", body.Analyses[2].ID)
	assert.Equal(t, "24h accumulated QPF", body.Analyses[2].Title)
}

func TestSceneEndpoint(t *testing.T) {
	composer := &mockComposer{scene: &compose.Scene{
		Analysis:    "precipitation-24h",
		Model:       "ECMWF",
		Filename:    "18042008.024",
		GeneratedAt: time.Date(2018, 4, 20, 9, 0, 0, 0, time.UTC),
	}}
	srv := newSceneServer(composer, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/v1/scenes/precipitation-24h?model=ecmwf&init=18042008&fhour=24&center=115,30&width=14&wind=true", nil)

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var scene compose.Scene
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scene))
	assert.Equal(t, "precipitation-24h", scene.Analysis)
	assert.Equal(t, "18042008.024", scene.Filename)

	// The composer received the query parameters unchanged.
	assert.Equal(t, "precipitation-24h", composer.last.Analysis)
	assert.Equal(t, "ecmwf", composer.last.Model)
	assert.Equal(t, "18042008", composer.last.InitTime)
	assert.Equal(t, 24, composer.last.ForecastHour)
	require.NotNil(t, composer.last.MapCenter)
	assert.Equal(t, compose.Point{Lon: 115, Lat: 30}, *composer.last.MapCenter)
	assert.Equal(t, 14.0, composer.last.MapWidth)
	assert.True(t, composer.last.DrawWind)
}

func TestSceneEndpoint_BadParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"fhour not an integer", "fhour=soon"},
		{"negative fhour", "fhour=-3"},
		{"zero width", "width=0"},
		{"malformed center", "center=115;30"},
		{"malformed wind", "wind=maybe"},
		{"malformed init", "init=20th-april"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			composer := &mockComposer{scene: &compose.Scene{}}
			srv := newSceneServer(composer, nil)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/v1/scenes/precipitation-24h?"+tt.query, nil)

			srv.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSceneEndpoint_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "unknown model",
			err:        &catalog.UnknownModelError{Analysis: "precipitation-24h", Model: "GFS", Valid: []string{"ECMWF"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown analysis",
			err:        &catalog.UnknownAnalysisError{Analysis: "dewpoint-2m", Valid: []string{"precipitation-24h"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "grid not distributed yet",
			err:        fmt.Errorf("retrieve ECMWF_HR/RAIN24/18042008.024: %w", compose.ErrGridNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "gateway failure",
			err:        fmt.Errorf("grid request: %w: connection refused", compose.ErrGatewayUnavailable),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "composition bug",
			err:        errors.New("marshal scene: unsupported value"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newSceneServer(&mockComposer{err: tt.err}, nil)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/v1/scenes/precipitation-24h", nil)

			srv.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.err.Error())
		})
	}
}
