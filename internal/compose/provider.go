package compose

import (
	"context"
	"errors"

	"github.com/cycle13/weather-map-service/internal/field"
)

// ErrGridNotFound reports that the data service has no file for the requested
// directory and filename, usually because the run has not arrived yet.
var ErrGridNotFound = errors.New("model grid not found")

// ErrGatewayUnavailable reports a retrieval failure on the provider's side:
// unreachable gateway, request timeout, or a 5xx response. A request failing
// this way may succeed once the gateway recovers.
var ErrGatewayUnavailable = errors.New("data gateway unavailable")

// GridProvider retrieves one forecast file as a grid.
type GridProvider interface {
	// ModelGrid fetches the grid stored under directory with the given
	// filename. Implementations report missing files with ErrGridNotFound.
	ModelGrid(ctx context.Context, directory, filename string) (*field.Grid, error)
}
