// Package micaps retrieves model grids from a MICAPS data gateway over HTTP.
package micaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cycle13/weather-map-service/internal/compose"
	"github.com/cycle13/weather-map-service/internal/field"
	"github.com/cycle13/weather-map-service/internal/observability"
)

// Client implements compose.GridProvider against the gateway's grid endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a gateway client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		metrics: metrics,
	}
}

// ModelGrid fetches the grid stored under directory with the given filename.
// A gateway 404 means the file has not been distributed yet and maps to
// compose.ErrGridNotFound.
func (c *Client) ModelGrid(ctx context.Context, directory, filename string) (*field.Grid, error) {
	params := url.Values{
		"directory": {directory},
		"filename":  {filename},
	}
	fullURL := c.baseURL + "/v1/grids?" + params.Encode()

	start := time.Now()
	defer func() {
		c.metrics.GridFetchDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.GridRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("grid request: %w: %w", compose.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.metrics.GridRequests.WithLabelValues("not_found").Inc()
		return nil, compose.ErrGridNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.GridRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("gateway error: %w: status %d: %s", compose.ErrGatewayUnavailable, resp.StatusCode, body)
		}
		return nil, fmt.Errorf("gateway error: status %d: %s", resp.StatusCode, body)
	}

	var wire gridResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		c.metrics.GridRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	grid, err := wire.toGrid()
	if err != nil {
		c.metrics.GridRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("bad grid payload: %w", err)
	}

	c.metrics.GridRequests.WithLabelValues("success").Inc()
	ny, nx := grid.Dims()
	c.logger.Debug("fetched grid",
		"directory", directory,
		"filename", filename,
		"shape", fmt.Sprintf("%dx%d", ny, nx))
	return grid, nil
}

// Gateway response types.

type gridResponse struct {
	Lon      []float64       `json:"lon"`
	Lat      []float64       `json:"lat"`
	Values   json.RawMessage `json:"values"`
	InitTime time.Time       `json:"init_time"`
}

func (r gridResponse) toGrid() (*field.Grid, error) {
	values, err := decodeValues(r.Values)
	if err != nil {
		return nil, err
	}
	g := &field.Grid{
		Lon:      r.Lon,
		Lat:      r.Lat,
		Values:   values,
		InitTime: r.InitTime,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// decodeValues accepts both value layouts the gateway emits: a plain 2D
// row-major array, or a 3D array whose single leading level is squeezed away.
// Masked samples arrive as null.
func decodeValues(raw json.RawMessage) ([][]float64, error) {
	var plane [][]*float64
	if err := json.Unmarshal(raw, &plane); err == nil {
		return densify(plane), nil
	}

	var cube [][][]*float64
	if err := json.Unmarshal(raw, &cube); err != nil {
		return nil, fmt.Errorf("values are neither a 2D nor a 3D array: %w", err)
	}
	if len(cube) != 1 {
		return nil, fmt.Errorf("3D values carry %d levels, want 1", len(cube))
	}
	return densify(cube[0]), nil
}

func densify(rows [][]*float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		vals := make([]float64, len(row))
		for j, p := range row {
			if p == nil {
				vals[j] = math.NaN()
			} else {
				vals[j] = *p
			}
		}
		out[i] = vals
	}
	return out
}
