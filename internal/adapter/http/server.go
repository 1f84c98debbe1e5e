// Package http exposes the service's HTTP surface: operational endpoints
// and a small read API for the catalog and ad-hoc scene composition.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cycle13/weather-map-service/internal/catalog"
	"github.com/cycle13/weather-map-service/internal/compose"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Composer builds a scene for an ad-hoc plot request.
type Composer interface {
	Compose(ctx context.Context, req compose.Request) (*compose.Scene, error)
}

// Server exposes health, readiness, metrics, and the scene API.
type Server struct {
	httpServer *http.Server
	catalog    *catalog.Catalog
	composer   Composer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the
// /v1 API routes.
func NewServer(addr string, cat *catalog.Catalog, composer Composer, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		catalog:  cat,
		composer: composer,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/catalog", s.handleCatalog)
	mux.HandleFunc("GET /v1/scenes/{analysis}", s.handleScene)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleCatalog lists every analysis with its model table, so clients can
// discover what they may request.
func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	type modelDoc struct {
		Name  string   `json:"name"`
		Paths []string `json:"paths"`
	}
	type analysisDoc struct {
		ID     string     `json:"id"`
		Title  string     `json:"title"`
		Models []modelDoc `json:"models"`
	}

	analyses := make([]analysisDoc, 0, len(s.catalog.Analyses()))
	for _, id := range s.catalog.Analyses() {
		a, err := s.catalog.Find(id)
		if err != nil {
			continue
		}
		doc := analysisDoc{ID: a.ID, Title: a.Title}
		for _, m := range a.Models() {
			doc.Models = append(doc.Models, modelDoc{Name: m.Name, Paths: m.Paths})
		}
		analyses = append(analyses, doc)
	}

	writeJSON(w, http.StatusOK, map[string]any{"analyses": analyses})
}

// handleScene composes one scene on demand and returns the document.
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	req, err := sceneRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err))
		return
	}

	scene, err := s.composer.Compose(r.Context(), req)
	if err != nil {
		s.writeComposeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scene)
}

// sceneRequest reads the plot request from the URL. Validation that the
// composer only reports with untyped errors happens here so bad input maps
// to 400 instead of 502.
func sceneRequest(r *http.Request) (compose.Request, error) {
	q := r.URL.Query()
	req := compose.Request{
		Analysis: r.PathValue("analysis"),
		Model:    q.Get("model"),
		InitTime: q.Get("init"),
	}

	if v := q.Get("fhour"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return compose.Request{}, fmt.Errorf("fhour %q is not an integer", v)
		}
		req.ForecastHour = n
	}
	if req.ForecastHour < 0 {
		return compose.Request{}, fmt.Errorf("fhour must not be negative")
	}
	if _, err := catalog.ParseInitialTime(req.InitTime); err != nil {
		return compose.Request{}, err
	}

	if v := q.Get("center"); v != "" {
		p, err := parseCenter(v)
		if err != nil {
			return compose.Request{}, err
		}
		req.MapCenter = &p
	}
	if v := q.Get("width"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return compose.Request{}, fmt.Errorf("width %q is not a positive number", v)
		}
		req.MapWidth = f
	}
	if v := q.Get("wind"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return compose.Request{}, fmt.Errorf("wind %q is not a boolean", v)
		}
		req.DrawWind = b
	}
	return req, nil
}

func parseCenter(v string) (compose.Point, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return compose.Point{}, fmt.Errorf("center %q is not lon,lat", v)
	}
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if lonErr != nil || latErr != nil {
		return compose.Point{}, fmt.Errorf("center %q is not lon,lat", v)
	}
	return compose.Point{Lon: lon, Lat: lat}, nil
}

// writeComposeError maps composition failures onto HTTP statuses: unknown
// catalog names are the client's fault, missing grids are 404, gateway
// trouble is 502, anything else is ours.
func (s *Server) writeComposeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		unknownModel    *catalog.UnknownModelError
		unknownAnalysis *catalog.UnknownAnalysisError
	)
	switch {
	case errors.As(err, &unknownModel), errors.As(err, &unknownAnalysis):
		writeJSON(w, http.StatusBadRequest, errorBody(err))
	case errors.Is(err, compose.ErrGridNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err))
	case errors.Is(err, compose.ErrGatewayUnavailable):
		s.logger.Error("compose failed upstream", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody(err))
	default:
		s.logger.Error("compose failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody(err))
	}
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
