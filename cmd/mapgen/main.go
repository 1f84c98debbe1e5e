// Command mapgen composes a single scene document and writes it as JSON,
// useful for inspecting renderer input without running the full service.
//
// Usage:
//
//	go run ./cmd/mapgen \
//	  -gateway http://micaps-gateway:8600 \
//	  -analysis composite-reflectivity-and-wind \
//	  -model SHANGHAI -init 18042008 -fhour 3 -wind \
//	  -out scene.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/lmittmann/tint"

	"github.com/cycle13/weather-map-service/internal/adapter/micaps"
	"github.com/cycle13/weather-map-service/internal/catalog"
	"github.com/cycle13/weather-map-service/internal/compose"
	"github.com/cycle13/weather-map-service/internal/observability"
)

type options struct {
	gateway     string
	analysis    string
	model       string
	initTime    string
	fhour       int
	center      string
	width       float64
	wind        bool
	cycle       int
	catalogFile string
	timeout     time.Duration
	out         string
	verbose     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.gateway, "gateway", "", "MICAPS data gateway base URL")
	flag.StringVar(&opts.analysis, "analysis", "", "analysis ID from the catalog")
	flag.StringVar(&opts.model, "model", "", "model name (empty uses the recipe default)")
	flag.StringVar(&opts.initTime, "init", "", "initial time, YYMMDDHH token or RFC 3339 (empty uses the latest cycle)")
	flag.IntVar(&opts.fhour, "fhour", 0, "forecast hour")
	flag.StringVar(&opts.center, "center", "", "map center as lon,lat")
	flag.Float64Var(&opts.width, "width", 0, "map window width in degrees")
	flag.BoolVar(&opts.wind, "wind", false, "overlay 850-hPa winds where the recipe supports it")
	flag.IntVar(&opts.cycle, "cycle", 12, "run cadence in hours used when -init is omitted")
	flag.StringVar(&opts.catalogFile, "catalog", "", "catalog override file (empty uses the built-in catalog)")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "gateway request timeout")
	flag.StringVar(&opts.out, "out", "", "output path for the scene JSON (empty writes to stdout)")
	flag.BoolVar(&opts.verbose, "v", false, "enable debug logging")
	flag.Parse()

	if opts.gateway == "" || opts.analysis == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "mapgen: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))

	cat, err := catalog.Load(opts.catalogFile)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	client := micaps.NewClient(opts.gateway, opts.timeout, logger, metrics)
	provider := micaps.NewCachedProvider(client, 64, metrics)
	composer := compose.NewComposer(cat, provider, clockwork.NewRealClock(), opts.cycle, logger)

	req := compose.Request{
		Analysis:     opts.analysis,
		Model:        opts.model,
		InitTime:     opts.initTime,
		ForecastHour: opts.fhour,
		MapWidth:     opts.width,
		DrawWind:     opts.wind,
	}
	if opts.center != "" {
		p, err := parseCenter(opts.center)
		if err != nil {
			return err
		}
		req.MapCenter = &p
	}

	scene, err := composer.Compose(context.Background(), req)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(scene, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}
	data = append(data, '\n')

	if opts.out == "" || opts.out == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.out, data, 0o644); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	logger.Info("scene written", "path", opts.out, "bytes", len(data))
	return nil
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
