// Package coords recognizes trip endpoints that are already coordinates so
// they can skip geocoding.
//
// Supported formats:
//   - Decimal degrees: "40.7128, -74.0060"
//   - Degrees minutes seconds: "40°42'46"N 74°0'22"W"
//   - MGRS: "18TWL8395907350"
package coords

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/akhenakh/mgrs"

	"github.com/NERVsystems/tripcarbon/pkg/geo"
)

// Format is a coordinate notation
type Format int

const (
	FormatUnknown Format = iota
	FormatDecimal
	FormatDMS
	FormatMGRS
)

func (f Format) String() string {
	switch f {
	case FormatDecimal:
		return "decimal"
	case FormatDMS:
		return "dms"
	case FormatMGRS:
		return "mgrs"
	default:
		return "unknown"
	}
}

var (
	// zone, latitude band (no I or O), 100km square, even count of digits
	mgrsRegex = regexp.MustCompile(`(?i)^(\d{1,2})([C-HJ-NP-X])([A-HJ-NP-Z]{2})(\d{2,10})$`)

	dmsRegex = regexp.MustCompile(`(?i)^(\d+)[°d\s]+(\d+)[′'m\s]+(\d+(?:\.\d+)?)[″"s]?\s*([NS])[\s,]+(\d+)[°d\s]+(\d+)[′'m\s]+(\d+(?:\.\d+)?)[″"s]?\s*([EW])$`)

	decimalRegex = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)\s*[,\s]\s*(-?\d+(?:\.\d+)?)$`)
)

type parser struct {
	format Format
	match  *regexp.Regexp
	parse  func(s string) (geo.Location, error)
}

// Most specific first; decimal matches the broadest inputs.
var parsers = []parser{
	{FormatMGRS, mgrsRegex, parseMGRS},
	{FormatDMS, dmsRegex, parseDMS},
	{FormatDecimal, decimalRegex, parseDecimal},
}

// Detect returns the notation of input without converting it
func Detect(input string) Format {
	input = strings.TrimSpace(input)
	for _, p := range parsers {
		if p.match.MatchString(input) {
			return p.format
		}
	}
	return FormatUnknown
}

// Parse converts input to a WGS84 location
func Parse(input string) (geo.Location, Format, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return geo.Location{}, FormatUnknown, fmt.Errorf("empty coordinate string")
	}
	for _, p := range parsers {
		if !p.match.MatchString(input) {
			continue
		}
		loc, err := p.parse(input)
		if err != nil {
			return geo.Location{}, p.format, err
		}
		if err := loc.Validate(); err != nil {
			return geo.Location{}, p.format, fmt.Errorf("%s coordinate out of range: %w", p.format, err)
		}
		return loc, p.format, nil
	}
	return geo.Location{}, FormatUnknown, fmt.Errorf("unrecognized coordinate format: %q", input)
}

func parseMGRS(s string) (geo.Location, error) {
	m := mgrsRegex.FindStringSubmatch(s)
	if len(m[4])%2 != 0 {
		return geo.Location{}, fmt.Errorf("MGRS %q has an odd number of digits", s)
	}
	zone, _ := strconv.Atoi(m[1])
	if zone < 1 || zone > 60 {
		return geo.Location{}, fmt.Errorf("MGRS zone %d out of range", zone)
	}
	lat, lon, err := mgrs.MGRSToLatLng(strings.ToUpper(s))
	if err != nil {
		return geo.Location{}, fmt.Errorf("MGRS conversion failed: %w", err)
	}
	return geo.Location{Latitude: lat, Longitude: lon}, nil
}

func parseDMS(s string) (geo.Location, error) {
	m := dmsRegex.FindStringSubmatch(s)
	lat, err := dmsToDecimal(m[1], m[2], m[3], 90)
	if err != nil {
		return geo.Location{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := dmsToDecimal(m[5], m[6], m[7], 180)
	if err != nil {
		return geo.Location{}, fmt.Errorf("longitude: %w", err)
	}
	if strings.EqualFold(m[4], "S") {
		lat = -lat
	}
	if strings.EqualFold(m[8], "W") {
		lon = -lon
	}
	return geo.Location{Latitude: lat, Longitude: lon}, nil
}

func dmsToDecimal(deg, min, sec string, maxDeg float64) (float64, error) {
	d, _ := strconv.ParseFloat(deg, 64)
	m, _ := strconv.ParseFloat(min, 64)
	s, _ := strconv.ParseFloat(sec, 64)
	if d > maxDeg || m >= 60 || s >= 60 {
		return 0, fmt.Errorf("invalid value %s°%s'%s\"", deg, min, sec)
	}
	return d + m/60 + s/3600, nil
}

func parseDecimal(s string) (geo.Location, error) {
	m := decimalRegex.FindStringSubmatch(s)
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return geo.Location{}, fmt.Errorf("invalid latitude: %s", m[1])
	}
	lon, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return geo.Location{}, fmt.Errorf("invalid longitude: %s", m[2])
	}
	return geo.Location{Latitude: lat, Longitude: lon}, nil
}
