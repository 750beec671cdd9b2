package trip

import (
	"context"

	"github.com/NERVsystems/tripcarbon/pkg/decision"
	"github.com/NERVsystems/tripcarbon/pkg/refdata"
)

func (m Model) registerEmissions(b *decision.Builder) {
	b.Add(Carbon, decision.Quorum{
		Name:     "from_co2_ch4_n2o_and_hfc_emissions",
		Requires: []string{CO2Emission, CH4Emission, N2OEmission, HFCEmission},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			return in.Float(CO2Emission) + in.Float(CH4Emission) + in.Float(N2OEmission) + in.Float(HFCEmission), nil
		},
	})

	perFuel := func(factor func(refdata.Fuel) float64) decision.ComputeFunc {
		return func(_ context.Context, in *decision.Inputs) (any, error) {
			fuel := decision.Record[refdata.Fuel](in, AutomobileFuel)
			return in.Float(FuelUseDuringTimeframe) * factor(fuel), nil
		}
	}
	perKm := func(factor func(refdata.Fuel) float64) decision.ComputeFunc {
		return func(_ context.Context, in *decision.Inputs) (any, error) {
			fuel := decision.Record[refdata.Fuel](in, AutomobileFuel)
			return in.Float(DistanceDuringTimeframe) * factor(fuel), nil
		}
	}

	b.Add(CO2Emission, decision.Quorum{
		Name:     "from_fuel_use_and_automobile_fuel",
		Requires: []string{FuelUseDuringTimeframe, AutomobileFuel},
		Complies: complyAll,
		Compute:  perFuel(func(f refdata.Fuel) float64 { return f.CO2EmissionFactor }),
	})
	b.Add(CO2BiogenicEmission, decision.Quorum{
		Name:     "from_fuel_use_and_automobile_fuel",
		Requires: []string{FuelUseDuringTimeframe, AutomobileFuel},
		Complies: complyAll,
		Compute:  perFuel(func(f refdata.Fuel) float64 { return f.CO2BiogenicEmissionFactor }),
	})
	b.Add(Energy, decision.Quorum{
		Name:     "from_fuel_use_and_automobile_fuel",
		Requires: []string{FuelUseDuringTimeframe, AutomobileFuel},
		Complies: complyAll,
		Compute:  perFuel(func(f refdata.Fuel) float64 { return f.EnergyContent }),
	})
	b.Add(CH4Emission, decision.Quorum{
		Name:     "from_distance_and_automobile_fuel",
		Requires: []string{DistanceDuringTimeframe, AutomobileFuel},
		Complies: complyAll,
		Compute:  perKm(func(f refdata.Fuel) float64 { return f.CH4EmissionFactor }),
	})
	b.Add(N2OEmission, decision.Quorum{
		Name:     "from_distance_and_automobile_fuel",
		Requires: []string{DistanceDuringTimeframe, AutomobileFuel},
		Complies: complyAll,
		Compute:  perKm(func(f refdata.Fuel) float64 { return f.N2OEmissionFactor }),
	})
	b.Add(HFCEmission, decision.Quorum{
		Name:     "from_distance_and_automobile_fuel",
		Requires: []string{DistanceDuringTimeframe, AutomobileFuel},
		Complies: complyAll,
		Compute:  perKm(func(f refdata.Fuel) float64 { return f.HFCEmissionFactor }),
	})

	b.Add(FuelUseDuringTimeframe, decision.Quorum{
		Name:     "from_fuel_use_and_date",
		Requires: []string{FuelUse, Date},
		Complies: complyAll,
		Compute:  duringTimeframe(FuelUse),
	})
	b.Add(DistanceDuringTimeframe, decision.Quorum{
		Name:     "from_distance_and_date",
		Requires: []string{Distance, Date},
		Complies: complyAll,
		Compute:  duringTimeframe(Distance),
	})

	b.Add(FuelUse, decision.Quorum{
		Name:     "from_fuel_efficiency_distance_and_automobile_fuel",
		Requires: []string{FuelEfficiency, Distance, AutomobileFuel},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			efficiency := in.Float(FuelEfficiency)
			if efficiency <= 0 {
				return nil, nil
			}
			fuel := decision.Record[refdata.Fuel](in, AutomobileFuel)
			liters := in.Float(Distance) / efficiency
			if fuel.Liquid {
				return liters, nil
			}
			// efficiency is per liter of gasoline; convert to the fuel's own unit
			gasoline := m.Fallbacks.Gasoline
			if gasoline.EnergyContent <= 0 || fuel.EnergyContent <= 0 {
				return nil, decision.Unavailablef("no energy content to convert %s", fuel.Code)
			}
			return liters * gasoline.EnergyContent / fuel.EnergyContent, nil
		},
	})

	b.Add(Date, decision.Quorum{
		Name:     "from_timeframe",
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			return in.Timeframe().From, nil
		},
	})
}

// duringTimeframe counts quantity only when the trip date falls in the
// active timeframe
func duringTimeframe(quantity string) decision.ComputeFunc {
	return func(_ context.Context, in *decision.Inputs) (any, error) {
		date, ok := in.Date(Date)
		if !ok {
			return nil, nil
		}
		if !in.Timeframe().Contains(date) {
			return 0.0, nil
		}
		return in.Float(quantity), nil
	}
}
