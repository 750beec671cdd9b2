package trip

import (
	"context"

	"github.com/NERVsystems/tripcarbon/pkg/decision"
	"github.com/NERVsystems/tripcarbon/pkg/refdata"
)

func (m Model) registerEfficiency(b *decision.Builder) {
	b.Add(FuelEfficiency, decision.Quorum{
		Name:     "from_fuel_efficiency_city_and_highway_and_urbanity",
		Requires: []string{FuelEfficiencyCity, FuelEfficiencyHighway, Urbanity},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			return blendPositive(in.Float(FuelEfficiencyCity), in.Float(FuelEfficiencyHighway), in.Float(Urbanity))
		},
	})
	b.Add(FuelEfficiency, decision.Quorum{
		Name:     "from_size_class_hybridity_multiplier_and_urbanity",
		Requires: []string{SizeClass, HybridityMultiplier, Urbanity},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			sc := decision.Record[refdata.SizeClass](in, SizeClass)
			blended, err := blendPositive(sc.FuelEfficiencyCity, sc.FuelEfficiencyHighway, in.Float(Urbanity))
			if err != nil {
				return nil, err
			}
			return blended.(float64) * in.Float(HybridityMultiplier), nil
		},
	})
	b.Add(FuelEfficiency, decision.Quorum{
		Name:     "from_make_year_and_hybridity_multiplier",
		Requires: []string{MakeYear, HybridityMultiplier},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			my := decision.Record[refdata.MakeYear](in, MakeYear)
			return scaled(my.FuelEfficiency, in.Float(HybridityMultiplier))
		},
	})
	b.Add(FuelEfficiency, decision.Quorum{
		Name:     "from_make_and_hybridity_multiplier",
		Requires: []string{Make, HybridityMultiplier},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			mk := decision.Record[refdata.Make](in, Make)
			return scaled(mk.FuelEfficiency, in.Float(HybridityMultiplier))
		},
	})
	b.Add(FuelEfficiency, decision.Quorum{
		Name:     "from_hybridity_multiplier_and_country",
		Requires: []string{HybridityMultiplier, Country},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			c := decision.Record[refdata.Country](in, Country)
			return scaled(c.FuelEfficiency, in.Float(HybridityMultiplier))
		},
	})
	b.Add(FuelEfficiency, decision.Quorum{
		Name:     "from_hybridity_multiplier",
		Requires: []string{HybridityMultiplier},
		Complies: complyScope3,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			return scaled(m.Fallbacks.Country.FuelEfficiency, in.Float(HybridityMultiplier))
		},
	})

	for _, q := range []struct {
		quantity string
		pick     func(city, highway float64) float64
	}{
		{FuelEfficiencyCity, func(city, _ float64) float64 { return city }},
		{FuelEfficiencyHighway, func(_, highway float64) float64 { return highway }},
	} {
		pick := q.pick
		b.Add(q.quantity, decision.Quorum{
			Name:     "from_make_model_year",
			Requires: []string{MakeModelYear},
			Complies: complyAll,
			Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
				mmy := decision.Record[refdata.MakeModelYear](in, MakeModelYear)
				return positive(pick(mmy.FuelEfficiencyCity, mmy.FuelEfficiencyHighway))
			},
		})
		b.Add(q.quantity, decision.Quorum{
			Name:     "from_make_model",
			Requires: []string{MakeModel},
			Complies: complyAll,
			Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
				mm := decision.Record[refdata.MakeModel](in, MakeModel)
				return positive(pick(mm.FuelEfficiencyCity, mm.FuelEfficiencyHighway))
			},
		})
	}

	b.Add(HybridityMultiplier, decision.Quorum{
		Name:     "from_size_class_hybridity_and_urbanity",
		Requires: []string{SizeClass, Hybridity, Urbanity},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			sc := decision.Record[refdata.SizeClass](in, SizeClass)
			mult := multipliersFor(sc, HybridityOf(in.Bool(Hybridity)))
			return blendPositive(mult.City, mult.Highway, in.Float(Urbanity))
		},
	})
	b.Add(HybridityMultiplier, decision.Quorum{
		Name:     "from_hybridity_and_urbanity",
		Requires: []string{Hybridity, Urbanity},
		Complies: complyScope3,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			mult := multipliersFor(m.Fallbacks.SizeClass, HybridityOf(in.Bool(Hybridity)))
			return blendPositive(mult.City, mult.Highway, in.Float(Urbanity))
		},
	})
	b.Add(HybridityMultiplier, decision.Quorum{
		Name:     "default",
		Complies: complyAll,
		Compute: func(context.Context, *decision.Inputs) (any, error) {
			return 1.0, nil
		},
	})
}

func multipliersFor(sc refdata.SizeClass, kind HybridityKind) refdata.Multipliers {
	if kind == Hybrid {
		return sc.HybridMultipliers
	}
	return sc.ConventionalMultipliers
}

// positive treats a zero or negative record field as not populated
func positive(v float64) (any, error) {
	if v <= 0 {
		return nil, decision.ErrUnavailable
	}
	return v, nil
}

func scaled(v, multiplier float64) (any, error) {
	if v <= 0 {
		return nil, decision.ErrUnavailable
	}
	return v * multiplier, nil
}

func blendPositive(city, highway, urbanity float64) (any, error) {
	if city <= 0 || highway <= 0 {
		return nil, decision.ErrUnavailable
	}
	return HarmonicBlend(city, highway, urbanity), nil
}
