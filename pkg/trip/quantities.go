// Package trip declares the automobile trip emission model: the committees
// that turn partial trip facts into fuel use, distance, energy and
// greenhouse-gas emissions.
package trip

// Committee quantities
const (
	Carbon                  = "carbon"
	CO2Emission             = "co2_emission"
	CO2BiogenicEmission     = "co2_biogenic_emission"
	CH4Emission             = "ch4_emission"
	N2OEmission             = "n2o_emission"
	HFCEmission             = "hfc_emission"
	Energy                  = "energy"
	FuelUseDuringTimeframe  = "fuel_use_during_timeframe"
	DistanceDuringTimeframe = "distance_during_timeframe"
	FuelUse                 = "fuel_use"
	Date                    = "date"
	Distance                = "distance"
	OriginLocation          = "origin_location"
	DestinationLocation     = "destination_location"
	Speed                   = "speed"
	Urbanity                = "urbanity"
	Country                 = "country"
	FuelEfficiency          = "fuel_efficiency"
	FuelEfficiencyCity      = "fuel_efficiency_city"
	FuelEfficiencyHighway   = "fuel_efficiency_highway"
	HybridityMultiplier     = "hybridity_multiplier"
	AutomobileFuel          = "automobile_fuel"
	SizeClass               = "size_class"
	Make                    = "make"
	MakeModel               = "make_model"
	MakeYear                = "make_year"
	MakeModelYear           = "make_model_year"
)

// Client-only inputs
const (
	MakeName      = "make_name"
	ModelName     = "model_name"
	Year          = "year"
	FuelCode      = "fuel_code"
	SizeClassName = "size_class_name"
	CountryCode   = "country_code"
	Hybridity     = "hybridity"
	Origin        = "origin"
	Destination   = "destination"
	// Duration is the trip duration in seconds
	Duration = "duration"
)

// Outputs are the quantities an estimate reports
var Outputs = []string{
	Carbon,
	CO2Emission,
	CO2BiogenicEmission,
	CH4Emission,
	N2OEmission,
	HFCEmission,
	Energy,
	FuelUse,
	Distance,
	FuelEfficiency,
}

// Units of the reported quantities
var Units = map[string]string{
	Carbon:              "kg CO2e",
	CO2Emission:         "kg CO2",
	CO2BiogenicEmission: "kg CO2",
	CH4Emission:         "kg CO2e",
	N2OEmission:         "kg CO2e",
	HFCEmission:         "kg CO2e",
	Energy:              "MJ",
	FuelUse:             "fuel unit",
	Distance:            "km",
	FuelEfficiency:      "km/l gasoline equivalent",
	Speed:               "km/h",
}

// HybridityKind selects the size class multipliers applied to fuel efficiency
type HybridityKind int

const (
	Conventional HybridityKind = iota
	Hybrid
)

// HybridityOf maps the client's hybridity flag
func HybridityOf(hybrid bool) HybridityKind {
	if hybrid {
		return Hybrid
	}
	return Conventional
}

func (h HybridityKind) String() string {
	if h == Hybrid {
		return "hybrid"
	}
	return "conventional"
}
