package trip

import (
	"context"

	"github.com/NERVsystems/tripcarbon/pkg/decision"
	"github.com/NERVsystems/tripcarbon/pkg/refdata"
)

func (m Model) registerVehicle(b *decision.Builder) {
	b.Add(AutomobileFuel, decision.Quorum{
		Name:     "from_fuel_code",
		Requires: []string{FuelCode},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			return m.fuel(in.String(FuelCode))
		},
	})
	b.Add(AutomobileFuel, decision.Quorum{
		Name:     "from_make_model_year",
		Requires: []string{MakeModelYear},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			return m.fuel(decision.Record[refdata.MakeModelYear](in, MakeModelYear).FuelCode)
		},
	})
	b.Add(AutomobileFuel, decision.Quorum{
		Name:     "from_make_model",
		Requires: []string{MakeModel},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			return m.fuel(decision.Record[refdata.MakeModel](in, MakeModel).FuelCode)
		},
	})
	b.Add(AutomobileFuel, decision.Quorum{
		Name:     "default",
		Complies: complyScope3,
		Compute: func(context.Context, *decision.Inputs) (any, error) {
			return m.Fallbacks.Fuel, nil
		},
	})

	b.Add(SizeClass, decision.Quorum{
		Name:     "from_size_class_name",
		Requires: []string{SizeClassName},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			return m.sizeClass(in.String(SizeClassName))
		},
	})
	b.Add(SizeClass, decision.Quorum{
		Name:     "from_make_model_year",
		Requires: []string{MakeModelYear},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			return m.sizeClass(decision.Record[refdata.MakeModelYear](in, MakeModelYear).SizeClass)
		},
	})
	b.Add(SizeClass, decision.Quorum{
		Name:     "from_make_model",
		Requires: []string{MakeModel},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			return m.sizeClass(decision.Record[refdata.MakeModel](in, MakeModel).SizeClass)
		},
	})

	b.Add(Make, decision.Quorum{
		Name:     "from_make_name",
		Requires: []string{MakeName},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			mk, err := m.Source.Make(in.String(MakeName))
			if err != nil {
				return nil, lookupMiss(err)
			}
			return mk, nil
		},
	})
	b.Add(MakeModel, decision.Quorum{
		Name:     "from_make_and_model_name",
		Requires: []string{Make, ModelName},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			mk := decision.Record[refdata.Make](in, Make)
			mm, err := m.Source.MakeModel(mk.Name, in.String(ModelName))
			if err != nil {
				return nil, lookupMiss(err)
			}
			return mm, nil
		},
	})
	b.Add(MakeYear, decision.Quorum{
		Name:     "from_make_and_year",
		Requires: []string{Make, Year},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			mk := decision.Record[refdata.Make](in, Make)
			my, err := m.Source.MakeYear(mk.Name, in.Int(Year))
			if err != nil {
				return nil, lookupMiss(err)
			}
			return my, nil
		},
	})
	b.Add(MakeModelYear, decision.Quorum{
		Name:     "from_make_model_and_year",
		Requires: []string{MakeModel, Year},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			mm := decision.Record[refdata.MakeModel](in, MakeModel)
			mmy, err := m.Source.MakeModelYear(mm.Make, mm.Model, in.Int(Year))
			if err != nil {
				return nil, lookupMiss(err)
			}
			return mmy, nil
		},
	})
}

func (m Model) fuel(code string) (any, error) {
	if code == "" {
		return nil, decision.Unavailablef("no fuel code")
	}
	f, err := m.Source.Fuel(code)
	if err != nil {
		return nil, lookupMiss(err)
	}
	return f, nil
}

func (m Model) sizeClass(name string) (any, error) {
	if name == "" {
		return nil, decision.Unavailablef("no size class")
	}
	sc, err := m.Source.SizeClass(name)
	if err != nil {
		return nil, lookupMiss(err)
	}
	return sc, nil
}
