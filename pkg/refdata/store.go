package refdata

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed data/reference.yaml
var defaultDataset []byte

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Dataset is the on-disk form of a reference data set
type Dataset struct {
	Fuels          []Fuel          `yaml:"fuels" validate:"dive"`
	Makes          []Make          `yaml:"makes" validate:"dive"`
	MakeYears      []MakeYear      `yaml:"make_years" validate:"dive"`
	MakeModels     []MakeModel     `yaml:"make_models" validate:"dive"`
	MakeModelYears []MakeModelYear `yaml:"make_model_years" validate:"dive"`
	SizeClasses    []SizeClass     `yaml:"size_classes" validate:"dive"`
	Countries      []Country       `yaml:"countries" validate:"dive"`
	Fallbacks      Fallbacks       `yaml:"fallbacks"`
}

// Store is an in-memory Source. It is read-only after construction.
type Store struct {
	fuels          map[string]Fuel
	makes          map[string]Make
	makeYears      map[string]map[int]MakeYear
	makeModels     map[string]MakeModel
	makeModelYears map[string]map[int]MakeModelYear
	sizeClasses    map[string]SizeClass
	countries      map[string]Country
	fallbacks      Fallbacks
}

var _ Source = (*Store)(nil)

// Default returns a store built from the embedded data set
func Default() (*Store, error) {
	return Parse(defaultDataset)
}

// LoadFile reads a YAML data set from path
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reference data: %w", err)
	}
	return Parse(data)
}

// Load reads a YAML data set from r
func Load(r io.Reader) (*Store, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading reference data: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML data set
func Parse(data []byte) (*Store, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing reference data: %w", err)
	}
	return NewStore(ds)
}

// NewStore indexes a data set after validating it
func NewStore(ds Dataset) (*Store, error) {
	if err := validate.Struct(ds); err != nil {
		return nil, fmt.Errorf("invalid reference data: %w", err)
	}

	s := &Store{
		fuels:          make(map[string]Fuel, len(ds.Fuels)),
		makes:          make(map[string]Make, len(ds.Makes)),
		makeYears:      make(map[string]map[int]MakeYear),
		makeModels:     make(map[string]MakeModel, len(ds.MakeModels)),
		makeModelYears: make(map[string]map[int]MakeModelYear),
		sizeClasses:    make(map[string]SizeClass, len(ds.SizeClasses)),
		countries:      make(map[string]Country, len(ds.Countries)),
		fallbacks:      ds.Fallbacks,
	}

	for _, f := range ds.Fuels {
		key := codeKey(f.Code)
		if _, dup := s.fuels[key]; dup {
			return nil, fmt.Errorf("duplicate fuel %q", f.Code)
		}
		s.fuels[key] = f
	}
	for _, m := range ds.Makes {
		key := nameKey(m.Name)
		if _, dup := s.makes[key]; dup {
			return nil, fmt.Errorf("duplicate make %q", m.Name)
		}
		s.makes[key] = m
	}
	for _, my := range ds.MakeYears {
		key := nameKey(my.Make)
		if s.makeYears[key] == nil {
			s.makeYears[key] = make(map[int]MakeYear)
		}
		s.makeYears[key][my.Year] = my
	}
	for _, mm := range ds.MakeModels {
		if err := s.checkFuel(mm.FuelCode); err != nil {
			return nil, fmt.Errorf("make model %s %s: %w", mm.Make, mm.Model, err)
		}
		s.makeModels[modelKey(mm.Make, mm.Model)] = mm
	}
	for _, mmy := range ds.MakeModelYears {
		if err := s.checkFuel(mmy.FuelCode); err != nil {
			return nil, fmt.Errorf("make model year %s %s %d: %w", mmy.Make, mmy.Model, mmy.Year, err)
		}
		key := modelKey(mmy.Make, mmy.Model)
		if s.makeModelYears[key] == nil {
			s.makeModelYears[key] = make(map[int]MakeModelYear)
		}
		s.makeModelYears[key][mmy.Year] = mmy
	}
	for _, sc := range ds.SizeClasses {
		s.sizeClasses[nameKey(sc.Name)] = sc
	}
	for _, c := range ds.Countries {
		s.countries[codeKey(c.Code)] = c
	}
	return s, nil
}

func (s *Store) checkFuel(code string) error {
	if code == "" {
		return nil
	}
	if _, ok := s.fuels[codeKey(code)]; !ok {
		return fmt.Errorf("unknown fuel code %q", code)
	}
	return nil
}

func codeKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func modelKey(makeName, model string) string {
	return nameKey(makeName) + "\x00" + nameKey(model)
}

func notFound(kind, key string) error {
	return fmt.Errorf("%s %q: %w", kind, key, ErrNotFound)
}

// Counts reports how many records of each table the store holds
func (s *Store) Counts() map[string]int {
	years := func(m map[string]map[int]MakeYear) int {
		n := 0
		for _, y := range m {
			n += len(y)
		}
		return n
	}
	modelYears := 0
	for _, y := range s.makeModelYears {
		modelYears += len(y)
	}
	return map[string]int{
		"fuels":            len(s.fuels),
		"makes":            len(s.makes),
		"make_years":       years(s.makeYears),
		"make_models":      len(s.makeModels),
		"make_model_years": modelYears,
		"size_classes":     len(s.sizeClasses),
		"countries":        len(s.countries),
	}
}

// Fallbacks returns the world-average records of the data set
func (s *Store) Fallbacks() Fallbacks {
	return s.fallbacks
}

// Fuel looks up a fuel by code, case-insensitively
func (s *Store) Fuel(code string) (Fuel, error) {
	if f, ok := s.fuels[codeKey(code)]; ok {
		return f, nil
	}
	return Fuel{}, notFound("fuel", code)
}

// Make looks up a manufacturer by name
func (s *Store) Make(name string) (Make, error) {
	if m, ok := s.makes[nameKey(name)]; ok {
		return m, nil
	}
	return Make{}, notFound("make", name)
}

// MakeModel looks up a model of a manufacturer
func (s *Store) MakeModel(makeName, model string) (MakeModel, error) {
	if mm, ok := s.makeModels[modelKey(makeName, model)]; ok {
		return mm, nil
	}
	return MakeModel{}, notFound("make model", makeName+" "+model)
}

// MakeYear returns the fleet record for the year closest to year
func (s *Store) MakeYear(makeName string, year int) (MakeYear, error) {
	byYear := s.makeYears[nameKey(makeName)]
	y, ok := ClosestYear(sortedYears(byYear), year)
	if !ok {
		return MakeYear{}, notFound("make year", fmt.Sprintf("%s %d", makeName, year))
	}
	return byYear[y], nil
}

// MakeModelYear returns the model record for the year closest to year
func (s *Store) MakeModelYear(makeName, model string, year int) (MakeModelYear, error) {
	byYear := s.makeModelYears[modelKey(makeName, model)]
	y, ok := ClosestYear(sortedYears(byYear), year)
	if !ok {
		return MakeModelYear{}, notFound("make model year", fmt.Sprintf("%s %s %d", makeName, model, year))
	}
	return byYear[y], nil
}

// SizeClass looks up a size class by name
func (s *Store) SizeClass(name string) (SizeClass, error) {
	if sc, ok := s.sizeClasses[nameKey(name)]; ok {
		return sc, nil
	}
	return SizeClass{}, notFound("size class", name)
}

// Country looks up a country by ISO 3166-1 alpha-2 code
func (s *Store) Country(code string) (Country, error) {
	if c, ok := s.countries[codeKey(code)]; ok {
		return c, nil
	}
	return Country{}, notFound("country", code)
}

func sortedYears[V any](byYear map[int]V) []int {
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
