// Command mockgateway serves deterministic synthetic model grids over the
// data gateway's grid API, so the service and its tools can run without a
// live MICAPS connection. Values are seeded from the data directory and the
// run token, so a request always returns the same grid while consecutive
// forecast hours drift the pattern eastward.
//
// Usage:
//
//	go run ./cmd/mockgateway -addr :8600 -spacing 0.5 -horizon 240
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/cycle13/weather-map-service/internal/field"
)

type options struct {
	addr    string
	spacing float64
	horizon int
	verbose bool
}

func main() {
	var opts options
	flag.StringVar(&opts.addr, "addr", ":8600", "listen address")
	flag.Float64Var(&opts.spacing, "spacing", 0.5, "grid spacing in degrees")
	flag.IntVar(&opts.horizon, "horizon", 240, "last available forecast hour; later hours return 404")
	flag.BoolVar(&opts.verbose, "v", false, "enable debug logging")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "mockgateway: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.spacing <= 0 {
		return fmt.Errorf("spacing must be positive, got %g", opts.spacing)
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))

	gw := &gateway{
		spacing: opts.spacing,
		horizon: opts.horizon,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"healthy"}`+"\n")
	})
	mux.HandleFunc("GET /v1/grids", gw.handleGrid)

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("mock gateway listening",
		"addr", opts.addr,
		"spacing", opts.spacing,
		"horizon", opts.horizon)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type gateway struct {
	spacing float64
	horizon int
	logger  *slog.Logger
}

func (g *gateway) handleGrid(w http.ResponseWriter, r *http.Request) {
	directory := strings.TrimSpace(r.URL.Query().Get("directory"))
	filename := strings.TrimSpace(r.URL.Query().Get("filename"))
	if directory == "" || filename == "" {
		http.Error(w, "directory and filename are required", http.StatusBadRequest)
		return
	}

	initTime, fhour, err := parseFilename(filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if fhour > g.horizon {
		g.logger.Debug("beyond horizon", "filename", filename, "horizon", g.horizon)
		http.Error(w, "forecast hour not distributed", http.StatusNotFound)
		return
	}

	grid := g.synthesize(directory, initTime, fhour)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(grid); err != nil {
		g.logger.Error("encode grid", "error", err)
		return
	}

	ny, nx := grid.Dims()
	g.logger.Debug("served grid",
		"directory", directory,
		"filename", filename,
		"shape", fmt.Sprintf("%dx%d", ny, nx))
}

// parseFilename splits a distribution filename into its run timestamp and
// forecast hour: "18042008.003" is the 2018-04-20T08Z run at hour 3.
func parseFilename(name string) (time.Time, int, error) {
	token, hours, ok := strings.Cut(name, ".")
	if !ok {
		return time.Time{}, 0, fmt.Errorf("filename %q is not TOKEN.FFF", name)
	}
	t, err := time.Parse("06010215", token)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("run token %q is not YYMMDDHH", token)
	}
	fhour, err := strconv.Atoi(hours)
	if err != nil || len(hours) != 3 || fhour < 0 {
		return time.Time{}, 0, fmt.Errorf("forecast hour %q is not a three-digit count", hours)
	}
	return t.UTC(), fhour, nil
}

// Synthetic domain covering China and surroundings, matching the areas the
// real distribution stores.
const (
	lonMin = 70.0
	lonMax = 140.0
	latMin = 10.0
	latMax = 60.0
)

func (g *gateway) synthesize(directory string, initTime time.Time, fhour int) *field.Grid {
	nx := int((lonMax-lonMin)/g.spacing) + 1
	ny := int((latMax-latMin)/g.spacing) + 1

	lon := make([]float64, nx)
	for j := range lon {
		lon[j] = lonMin + float64(j)*g.spacing
	}
	lat := make([]float64, ny)
	for i := range lat {
		lat[i] = latMin + float64(i)*g.spacing
	}

	kind := classify(directory)
	phase := seedPhase(directory, initTime)
	// Weather moves: shift the pattern eastward as the forecast advances.
	drift := 0.3 * float64(fhour)

	values := make([][]float64, ny)
	for i := range values {
		row := make([]float64, nx)
		for j := range row {
			row[j] = sample(kind, phase, lon[j]-drift, lat[i])
		}
		values[i] = row
	}

	return &field.Grid{
		Lon:      lon,
		Lat:      lat,
		Values:   values,
		InitTime: initTime,
	}
}

type fieldKind int

const (
	kindGeneric fieldKind = iota
	kindReflectivity
	kindWindU
	kindWindV
	kindRain
	kindHeight
	kindPressure
)

// classify picks a sampler from the variable named in the data directory.
func classify(directory string) fieldKind {
	upper := strings.ToUpper(directory)
	switch {
	case strings.Contains(upper, "REFLECTIVITY"):
		return kindReflectivity
	case strings.Contains(upper, "UGRD"):
		return kindWindU
	case strings.Contains(upper, "VGRD"):
		return kindWindV
	case strings.Contains(upper, "RAIN"):
		return kindRain
	case strings.Contains(upper, "HGT"):
		return kindHeight
	case strings.Contains(upper, "PRMSL"):
		return kindPressure
	default:
		return kindGeneric
	}
}

// seedPhase turns directory and run token into a stable phase angle, so each
// variable and cycle gets its own pattern without any stored state.
func seedPhase(directory string, initTime time.Time) float64 {
	h := fnv.New64a()
	_, _ = io.WriteString(h, directory)
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, initTime.Format("06010215"))
	return float64(h.Sum64()%3600) / 3600 * 2 * math.Pi
}

func sample(kind fieldKind, phase, lon, lat float64) float64 {
	switch kind {
	case kindReflectivity:
		// Mosaics carry the 9999 sentinel outside radar coverage.
		if math.Hypot(lon-117, lat-35) > 25 {
			return 9999
		}
		v := 0.0
		for k := 0; k < 3; k++ {
			cx := 117 + 6*math.Cos(phase+float64(k)*2.1)
			cy := 35 + 5*math.Sin(phase+float64(k)*1.7)
			d2 := sq(lon-cx) + sq(lat-cy)
			v += (52 - 8*float64(k)) * math.Exp(-d2/(2*sq(1.5)))
		}
		return v
	case kindWindU:
		return 12*math.Sin(lat*math.Pi/30+phase) + 3*math.Cos(lon*math.Pi/20)
	case kindWindV:
		return 8 * math.Cos(lon*math.Pi/25+phase)
	case kindRain:
		band := 40 * (1 + math.Sin(lon*math.Pi/15+phase))
		return band * math.Exp(-sq((lat-32)/8))
	case kindHeight:
		return 5760 - 4.2*(lat-35) + 80*math.Sin(lon*math.Pi/30+phase)
	case kindPressure:
		return 1012 + 14*math.Sin(lon*math.Pi/40+phase)*math.Cos(lat*math.Pi/50)
	default:
		return 10 * math.Sin(lon*math.Pi/20+phase) * math.Cos(lat*math.Pi/25)
	}
}

func sq(x float64) float64 { return x * x }
