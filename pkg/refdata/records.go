// Package refdata holds the reference records the emission model looks up:
// fuels, makes, models, size classes and countries.
package refdata

// Fuel is an automobile fuel. Quantities are per unit of fuel (liters for
// liquid fuels, kWh for electricity, m3 for gases) except the per-distance
// factors, which are kg CO2e per km.
type Fuel struct {
	Code   string `yaml:"code" json:"code" validate:"required"`
	Name   string `yaml:"name" json:"name" validate:"required"`
	Unit   string `yaml:"unit" json:"unit" validate:"required,oneof=l kWh m3"`
	Liquid bool   `yaml:"liquid" json:"liquid"`
	// EnergyContent is MJ per unit
	EnergyContent float64 `yaml:"energy_content" json:"energy_content" validate:"gt=0"`
	// CO2EmissionFactor is fossil kg CO2 per unit
	CO2EmissionFactor float64 `yaml:"co2_emission_factor" json:"co2_emission_factor" validate:"gte=0"`
	// CO2BiogenicEmissionFactor is biogenic kg CO2 per unit
	CO2BiogenicEmissionFactor float64 `yaml:"co2_biogenic_emission_factor" json:"co2_biogenic_emission_factor" validate:"gte=0"`
	CH4EmissionFactor         float64 `yaml:"ch4_emission_factor" json:"ch4_emission_factor" validate:"gte=0"`
	N2OEmissionFactor         float64 `yaml:"n2o_emission_factor" json:"n2o_emission_factor" validate:"gte=0"`
	HFCEmissionFactor         float64 `yaml:"hfc_emission_factor" json:"hfc_emission_factor" validate:"gte=0"`
}

// Make is an automobile manufacturer. FuelEfficiency is the fleet average
// in km per liter of gasoline equivalent; zero means not known.
type Make struct {
	Name           string  `yaml:"name" json:"name" validate:"required"`
	FuelEfficiency float64 `yaml:"fuel_efficiency" json:"fuel_efficiency,omitempty" validate:"gte=0"`
}

// MakeYear is a manufacturer's fleet for one model year
type MakeYear struct {
	Make           string  `yaml:"make" json:"make" validate:"required"`
	Year           int     `yaml:"year" json:"year" validate:"gte=1900"`
	FuelEfficiency float64 `yaml:"fuel_efficiency" json:"fuel_efficiency,omitempty" validate:"gte=0"`
}

// MakeModel is a model across all years
type MakeModel struct {
	Make                  string  `yaml:"make" json:"make" validate:"required"`
	Model                 string  `yaml:"model" json:"model" validate:"required"`
	FuelCode              string  `yaml:"fuel_code" json:"fuel_code,omitempty"`
	SizeClass             string  `yaml:"size_class" json:"size_class,omitempty"`
	FuelEfficiencyCity    float64 `yaml:"fuel_efficiency_city" json:"fuel_efficiency_city,omitempty" validate:"gte=0"`
	FuelEfficiencyHighway float64 `yaml:"fuel_efficiency_highway" json:"fuel_efficiency_highway,omitempty" validate:"gte=0"`
}

// MakeModelYear is one model in one model year
type MakeModelYear struct {
	Make                  string  `yaml:"make" json:"make" validate:"required"`
	Model                 string  `yaml:"model" json:"model" validate:"required"`
	Year                  int     `yaml:"year" json:"year" validate:"gte=1900"`
	FuelCode              string  `yaml:"fuel_code" json:"fuel_code,omitempty"`
	SizeClass             string  `yaml:"size_class" json:"size_class,omitempty"`
	FuelEfficiencyCity    float64 `yaml:"fuel_efficiency_city" json:"fuel_efficiency_city,omitempty" validate:"gte=0"`
	FuelEfficiencyHighway float64 `yaml:"fuel_efficiency_highway" json:"fuel_efficiency_highway,omitempty" validate:"gte=0"`
}

// Multipliers scale fuel efficiency in city and highway driving
type Multipliers struct {
	City    float64 `yaml:"city" json:"city" validate:"gt=0"`
	Highway float64 `yaml:"highway" json:"highway" validate:"gt=0"`
}

// SizeClass is a vehicle size class such as "Midsize Car"
type SizeClass struct {
	Name                    string      `yaml:"name" json:"name" validate:"required"`
	FuelEfficiencyCity      float64     `yaml:"fuel_efficiency_city" json:"fuel_efficiency_city,omitempty" validate:"gte=0"`
	FuelEfficiencyHighway   float64     `yaml:"fuel_efficiency_highway" json:"fuel_efficiency_highway,omitempty" validate:"gte=0"`
	HybridMultipliers       Multipliers `yaml:"hybrid_multipliers" json:"hybrid_multipliers"`
	ConventionalMultipliers Multipliers `yaml:"conventional_multipliers" json:"conventional_multipliers"`
}

// Country carries national automobile averages. Zero fields are not known.
type Country struct {
	Code string `yaml:"code" json:"code" validate:"required"`
	Name string `yaml:"name" json:"name"`
	// Urbanity is the share of distance driven in cities, 0..1
	Urbanity float64 `yaml:"urbanity" json:"urbanity,omitempty" validate:"gte=0,lte=1"`
	// CitySpeed and HighwaySpeed are km/h
	CitySpeed    float64 `yaml:"city_speed" json:"city_speed,omitempty" validate:"gte=0"`
	HighwaySpeed float64 `yaml:"highway_speed" json:"highway_speed,omitempty" validate:"gte=0"`
	// TripDistance is the average trip length in km
	TripDistance float64 `yaml:"trip_distance" json:"trip_distance,omitempty" validate:"gte=0"`
	// FuelEfficiency is km per liter of gasoline equivalent
	FuelEfficiency float64 `yaml:"fuel_efficiency" json:"fuel_efficiency,omitempty" validate:"gte=0"`
}
