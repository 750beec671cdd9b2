// Package geo holds the geographic primitives shared by the coordinate parser
// and the routing collaborators.
package geo

import "fmt"

// Location is a WGS84 point in decimal degrees
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String formats the location as "lat,lon"
func (l Location) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Latitude, l.Longitude)
}

// Validate reports whether the location lies within WGS84 bounds
func (l Location) Validate() error {
	return ValidateCoords(l.Latitude, l.Longitude)
}

// ValidateCoords validates latitude and longitude values
func ValidateCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("invalid latitude: %f (must be between -90 and 90)", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("invalid longitude: %f (must be between -180 and 180)", lon)
	}
	return nil
}
