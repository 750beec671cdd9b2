package coords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		format  Format
		wantLat float64
		wantLon float64
	}{
		{"decimal with comma", "40.7128, -74.0060", FormatDecimal, 40.7128, -74.0060},
		{"decimal with space", "-33.8688 151.2093", FormatDecimal, -33.8688, 151.2093},
		{"integer decimal", "48,2", FormatDecimal, 48, 2},
		{"dms with symbols", `19°51'22"N 99°49'0"E`, FormatDMS, 19.856111, 99.816667},
		{"dms with letters", "19d51m22sN 99d49m0sE", FormatDMS, 19.856111, 99.816667},
		{"dms southern western", `33°51'25"S 70°40'0"W`, FormatDMS, -33.856944, -70.666667},
		{"mgrs washington", "18SUJ2337506519", FormatMGRS, 38.8895, -77.0365},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, format, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
			assert.InDelta(t, tt.wantLat, loc.Latitude, 0.01)
			assert.InDelta(t, tt.wantLon, loc.Longitude, 0.01)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"street address", "1600 Pennsylvania Ave NW, Washington"},
		{"latitude out of range", "91.0, 10.0"},
		{"longitude out of range", "10.0, 181.0"},
		{"dms minutes overflow", `19°61'22"N 99°49'0"E`},
		{"mgrs odd digits", "18SUJ123456789"},
		{"mgrs zone 61", "61SUJ1234567890"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestDetect(t *testing.T) {
	assert.Equal(t, FormatMGRS, Detect("47QME8598697460"))
	assert.Equal(t, FormatDMS, Detect("19 51 22 N 99 48 59 E"))
	assert.Equal(t, FormatDecimal, Detect(" 19.856, 99.816 "))
	assert.Equal(t, FormatUnknown, Detect("Berlin Hauptbahnhof"))
	assert.Equal(t, "mgrs", FormatMGRS.String())
	assert.Equal(t, "unknown", Format(42).String())
}
