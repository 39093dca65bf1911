package location

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
)

// UnknownLocation is returned by namers when no name could be resolved.
const UnknownLocation = "Unknown location"

var ErrNotConfigured = errors.New("no device coordinates configured")

// StaticProvider reports a fixed position, typically read from configuration
// on machines without a positioning device.
type StaticProvider struct {
	coords     attendance.Coordinates
	configured bool
}

// NewStaticProvider returns a provider for lat/lon. NaN coordinates yield a
// provider that always fails.
func NewStaticProvider(lat, lon float64) *StaticProvider {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return &StaticProvider{}
	}
	return &StaticProvider{
		coords:     attendance.Coordinates{Latitude: lat, Longitude: lon},
		configured: true,
	}
}

func (p *StaticProvider) Locate(ctx context.Context) (attendance.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Coordinates{}, &attendance.GeolocationError{Err: err}
	}
	if !p.configured {
		return attendance.Coordinates{}, &attendance.GeolocationError{Err: ErrNotConfigured}
	}
	if err := validate(p.coords); err != nil {
		return attendance.Coordinates{}, &attendance.GeolocationError{Err: err}
	}
	return p.coords, nil
}

func validate(c attendance.Coordinates) error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %f out of range", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %f out of range", c.Longitude)
	}
	return nil
}

// FixedNamer names every position the same. Used when no geocoder is
// configured.
type FixedNamer string

func (n FixedNamer) ResolveLocationName(context.Context, float64, float64) string {
	if n == "" {
		return UnknownLocation
	}
	return string(n)
}
