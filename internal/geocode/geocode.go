// Package geocode defines the address resolution oracle. Both directions
// may legitimately return "no result" — that is data, not an error.
// ErrUnavailable marks transport-level failures (timeout, HTTP error);
// callers recover by proceeding without coordinates.
package geocode

import (
	"context"

	"github.com/pkg/errors"

	"github.com/openparcel/parceltrack/internal/geomath"
)

// ErrUnavailable is returned when the external oracle cannot be reached
// or refuses the request. Never fatal for a position update.
var ErrUnavailable = errors.New("geocoder unavailable")

type Geocoder interface {
	// Forward resolves free text to a coordinate plus the provider's
	// display name. (nil, "", nil) means "no result".
	Forward(ctx context.Context, query string) (*geomath.Coordinate, string, error)

	// Reverse resolves a coordinate to an address. ("", nil) means
	// "no result".
	Reverse(ctx context.Context, c geomath.Coordinate) (string, error)
}
