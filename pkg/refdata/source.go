package refdata

import (
	"errors"
	"math"
)

// ErrNotFound is returned when a lookup has no matching record
var ErrNotFound = errors.New("reference record not found")

// Source looks up reference records. Implementations must be safe for
// concurrent use.
type Source interface {
	Fuel(code string) (Fuel, error)
	Make(name string) (Make, error)
	MakeModel(makeName, model string) (MakeModel, error)
	// MakeYear returns the record for the closest available year
	MakeYear(makeName string, year int) (MakeYear, error)
	// MakeModelYear returns the record for the closest available year
	MakeModelYear(makeName, model string, year int) (MakeModelYear, error)
	SizeClass(name string) (SizeClass, error)
	Country(code string) (Country, error)
}

// Fallbacks are the world-average records used when nothing specific is known
type Fallbacks struct {
	Country   Country   `yaml:"country" json:"country"`
	Fuel      Fuel      `yaml:"fuel" json:"fuel"`
	SizeClass SizeClass `yaml:"size_class" json:"size_class"`
	// Gasoline is the reference fuel efficiencies are expressed against
	Gasoline Fuel `yaml:"gasoline" json:"gasoline"`
}

// ClosestYear picks the available year nearest to want. Ties go to the
// earlier year.
func ClosestYear(years []int, want int) (int, bool) {
	best, found := 0, false
	bestDist := math.MaxInt
	for _, y := range years {
		d := y - want
		if d < 0 {
			d = -d
		}
		if d < bestDist || (d == bestDist && y < best) {
			best, bestDist, found = y, d, true
		}
	}
	return best, found
}
