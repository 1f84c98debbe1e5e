package compose

import "strings"

// Request asks for one rendered map product. Optional fields left at their
// zero value fall back to the recipe defaults.
type Request struct {
	Analysis     string  `json:"analysis"`
	Model        string  `json:"model,omitempty"`
	InitTime     string  `json:"init_time,omitempty"` // YYMMDDHH token or RFC 3339; empty picks the latest cycle
	ForecastHour int     `json:"fhour"`
	MapCenter    *Point  `json:"map_center,omitempty"`
	MapWidth     float64 `json:"map_width,omitempty"`
	DrawWind     bool    `json:"draw_wind,omitempty"`
}

// defaultCenter and defaultWidth frame the North China Plain, the stock
// window for mesoscale and precipitation products.
var defaultCenter = Point{Lon: 117, Lat: 39}

const defaultWidth = 12.0

// window returns the request's map center and width with defaults applied.
func (r Request) window() (Point, float64) {
	center := defaultCenter
	if r.MapCenter != nil {
		center = *r.MapCenter
	}
	width := r.MapWidth
	if width <= 0 {
		width = defaultWidth
	}
	return center, width
}

// Default models applied when a request leaves the model blank.
const (
	defaultReflectivityModel = "SHANGHAI"
	defaultGlobalModel       = "ECMWF"
)

func modelOrDefault(model, fallback string) string {
	if strings.TrimSpace(model) == "" {
		return fallback
	}
	return model
}
