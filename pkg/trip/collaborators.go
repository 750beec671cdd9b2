package trip

import (
	"context"

	"github.com/NERVsystems/tripcarbon/pkg/geo"
)

// Query is a free-form address, optionally biased towards a country
type Query struct {
	Address     string
	CountryCode string
}

// Geocoder resolves addresses to coordinates
type Geocoder interface {
	Geocode(ctx context.Context, q Query) (geo.Location, error)
}

// Router measures driving distance in km between two points
type Router interface {
	RouteDistance(ctx context.Context, origin, destination geo.Location) (float64, error)
}

// HarmonicBlend weights city and highway values by the share u of city
// driving: 1 / (u/city + (1-u)/highway). Values are rates such as km/l or
// km/h, so the harmonic mean is the distance-weighted average.
func HarmonicBlend(city, highway, u float64) float64 {
	if city == highway {
		return city
	}
	return 1 / (u/city + (1-u)/highway)
}
