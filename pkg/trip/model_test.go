package trip

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NERVsystems/tripcarbon/pkg/decision"
	"github.com/NERVsystems/tripcarbon/pkg/geo"
	"github.com/NERVsystems/tripcarbon/pkg/refdata"
	"github.com/NERVsystems/tripcarbon/pkg/timeframe"
)

type fakeGeocoder struct {
	mu        sync.Mutex
	locations map[string]geo.Location
	queries   []Query
}

func (f *fakeGeocoder) Geocode(_ context.Context, q Query) (geo.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	loc, ok := f.locations[q.Address]
	if !ok {
		return geo.Location{}, errors.New("no results")
	}
	return loc, nil
}

type fakeRouter struct {
	km  float64
	err error
}

func (f *fakeRouter) RouteDistance(context.Context, geo.Location, geo.Location) (float64, error) {
	return f.km, f.err
}

func testModel(t *testing.T) Model {
	t.Helper()
	store, err := refdata.Default()
	require.NoError(t, err)
	return Model{Source: store, Fallbacks: store.Fallbacks()}
}

func testEngine(t *testing.T, m Model) *decision.Engine {
	t.Helper()
	reg, err := NewRegistry(m)
	require.NoError(t, err)
	e, err := decision.NewEngine(reg)
	require.NoError(t, err)
	return e
}

func eval(t *testing.T, e *decision.Engine, target string, chars map[string]any, tf timeframe.Timeframe, filter decision.Filter) *decision.Report {
	t.Helper()
	r, err := e.Evaluate(context.Background(), target, decision.NewCharacteristics(chars), tf, filter)
	require.NoError(t, err)
	return r
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHarmonicBlend(t *testing.T) {
	for _, x := range []float64{0.5, 8.58, 32, 92} {
		for _, u := range []float64{0, 0.25, 0.43, 1} {
			assert.Equal(t, x, HarmonicBlend(x, x, u))
		}
	}
	assert.InDelta(t, 48.0, HarmonicBlend(32, 96, 0.5), 1e-9)
	assert.Equal(t, 32.0, HarmonicBlend(32, 96, 1))
	assert.Equal(t, 96.0, HarmonicBlend(32, 96, 0))
}

func TestNewRegistry(t *testing.T) {
	_, err := NewRegistry(Model{})
	assert.Error(t, err)

	reg, err := NewRegistry(testModel(t))
	require.NoError(t, err)
	assert.True(t, reg.Sealed())
	assert.Len(t, reg.Quantities(), 27)
	assert.Equal(t, []string{
		CountryCode, Destination, Duration, FuelCode, Hybridity,
		MakeName, ModelName, Origin, SizeClassName, Year,
	}, reg.Inputs())
}

func TestDistanceDuringTimeframe(t *testing.T) {
	e := testEngine(t, testModel(t))
	tf, err := timeframe.New(date(2010, 1, 10), date(2011, 1, 1))
	require.NoError(t, err)

	tests := []struct {
		date time.Time
		want float64
	}{
		{date(2009, 6, 1), 0},
		{date(2010, 6, 1), 100},
		{date(2011, 6, 1), 0},
		{date(2010, 1, 10), 100},
		{date(2011, 1, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.date.Format(timeframe.DateLayout), func(t *testing.T) {
			r := eval(t, e, DistanceDuringTimeframe, map[string]any{Distance: 100.0, Date: tt.date}, tf, nil)
			require.True(t, r.Known)
			assert.Equal(t, tt.want, r.Value)
		})
	}

	t.Run("date defaults to timeframe start", func(t *testing.T) {
		r := eval(t, e, DistanceDuringTimeframe, map[string]any{Distance: 100.0}, tf, nil)
		assert.Equal(t, 100.0, r.Value)
	})

	t.Run("unparseable date is absent", func(t *testing.T) {
		r := eval(t, e, DistanceDuringTimeframe, map[string]any{Distance: 100.0, Date: "someday"}, tf, nil)
		assert.False(t, r.Known)
	})
}

func TestFuelUse(t *testing.T) {
	e := testEngine(t, testModel(t))
	tf := timeframe.Year(2010)

	tests := []struct {
		fuel string
		want float64
	}{
		{"G", 10},
		{"D", 10},
		{"EL", 97.22222},
	}
	for _, tt := range tests {
		t.Run(tt.fuel, func(t *testing.T) {
			r := eval(t, e, FuelUse, map[string]any{FuelEfficiency: 10.0, Distance: 100.0, FuelCode: tt.fuel}, tf, nil)
			require.True(t, r.Known)
			assert.InDelta(t, tt.want, r.Value, 1e-4)
		})
	}

	t.Run("non-positive efficiency is absent", func(t *testing.T) {
		for _, eff := range []float64{0, -3} {
			r := eval(t, e, FuelUse, map[string]any{FuelEfficiency: eff, Distance: 100.0, FuelCode: "G"}, tf, nil)
			assert.False(t, r.Known)
			assert.Equal(t, "from_fuel_efficiency_distance_and_automobile_fuel", r.Resolution.Quorum)
		}
	})
}

func TestCarbon(t *testing.T) {
	e := testEngine(t, testModel(t))
	r := eval(t, e, Carbon, map[string]any{
		CO2Emission: 10.0,
		CH4Emission: 0.1,
		N2OEmission: 0.1,
		HFCEmission: 1.0,
	}, timeframe.Year(2010), decision.NewFilter(decision.GHGProtocolScope1))
	require.True(t, r.Known)
	assert.InDelta(t, 11.2, r.Value, 1e-9)
	assert.Equal(t, decision.KnownStandards, r.Compliance())
}

func TestUnknownMakeModelFallsThrough(t *testing.T) {
	e := testEngine(t, testModel(t))
	tf := timeframe.Year(2010)

	t.Run("unknown model", func(t *testing.T) {
		r := eval(t, e, FuelEfficiency, map[string]any{MakeName: "Toyota", ModelName: "Hovercraft"}, tf, nil)
		mm, ok := r.Lookup(MakeModel)
		require.True(t, ok)
		assert.False(t, mm.Known)
		require.True(t, r.Known)
		assert.Equal(t, "from_make_and_hybridity_multiplier", r.Resolution.Quorum)
		assert.InDelta(t, 11.2, r.Value, 1e-9)
	})

	t.Run("unknown make", func(t *testing.T) {
		r := eval(t, e, FuelEfficiency, map[string]any{MakeName: "Trabant", ModelName: "601"}, tf, nil)
		mk, _ := r.Lookup(Make)
		assert.False(t, mk.Known)
		require.True(t, r.Known)
		assert.Equal(t, "from_hybridity_multiplier", r.Resolution.Quorum)
	})

	t.Run("make without fleet efficiency", func(t *testing.T) {
		r := eval(t, e, FuelEfficiency, map[string]any{MakeName: "Lada", CountryCode: "US"}, tf, nil)
		assert.Equal(t, "from_hybridity_multiplier_and_country", r.Resolution.Quorum)
		assert.InDelta(t, 8.3, r.Value, 1e-9)
	})
}

func TestVehicleLookups(t *testing.T) {
	e := testEngine(t, testModel(t))
	tf := timeframe.Year(2010)

	r := eval(t, e, FuelEfficiency, map[string]any{MakeName: "Toyota", ModelName: "Prius", Year: 2007}, tf, nil)
	mmy, ok := r.Lookup(MakeModelYear)
	require.True(t, ok)
	assert.Equal(t, 2004, mmy.Value.(refdata.MakeModelYear).Year)
	assert.Equal(t, "from_fuel_efficiency_city_and_highway_and_urbanity", r.Resolution.Quorum)
	assert.InDelta(t, HarmonicBlend(20.4, 19.1, 0.43), r.Value, 1e-9)

	fuel := eval(t, e, AutomobileFuel, map[string]any{MakeName: "Tesla", ModelName: "Model S"}, tf, nil)
	assert.Equal(t, "EL", fuel.Value.(refdata.Fuel).Code)
	assert.Equal(t, "from_make_model", fuel.Resolution.Quorum)

	fuel = eval(t, e, AutomobileFuel, map[string]any{MakeName: "Chevrolet", ModelName: "Impala"}, tf, nil)
	assert.Equal(t, "default", fuel.Resolution.Quorum)

	sc := eval(t, e, SizeClass, map[string]any{SizeClassName: "Compact Car"}, tf, nil)
	assert.Equal(t, "Compact Car", sc.Value.(refdata.SizeClass).Name)
}

func TestHybridityMultiplier(t *testing.T) {
	e := testEngine(t, testModel(t))
	tf := timeframe.Year(2010)

	r := eval(t, e, HybridityMultiplier, map[string]any{SizeClassName: "Midsize Car", Hybridity: true, Urbanity: 0.5}, tf, nil)
	assert.InDelta(t, HarmonicBlend(1.68, 1.10, 0.5), r.Value, 1e-9)

	r = eval(t, e, HybridityMultiplier, map[string]any{Hybridity: false, Urbanity: 0.5}, tf, nil)
	assert.Equal(t, "from_hybridity_and_urbanity", r.Resolution.Quorum)

	r = eval(t, e, HybridityMultiplier, map[string]any{Hybridity: true}, tf, decision.NewFilter(decision.GHGProtocolScope1))
	assert.Equal(t, "default", r.Resolution.Quorum)
	assert.Equal(t, 1.0, r.Value)
}

func TestDistance(t *testing.T) {
	tf := timeframe.Year(2010)

	t.Run("routes between geocoded and literal locations", func(t *testing.T) {
		m := testModel(t)
		gc := &fakeGeocoder{locations: map[string]geo.Location{"Berlin": {Latitude: 52.52, Longitude: 13.405}}}
		m.Geocoder = gc
		m.Router = &fakeRouter{km: 191.3}
		e := testEngine(t, m)

		r := eval(t, e, Distance, map[string]any{Origin: "Berlin", Destination: "51.3397, 12.3731", CountryCode: "DE"}, tf, nil)
		assert.Equal(t, 191.3, r.Value)
		assert.Equal(t, "from_origin_and_destination_locations", r.Resolution.Quorum)
		assert.Equal(t, []Query{{Address: "Berlin", CountryCode: "DE"}}, gc.queries)
	})

	t.Run("router failure falls through to country", func(t *testing.T) {
		m := testModel(t)
		m.Router = &fakeRouter{err: errors.New("osrm down")}
		e := testEngine(t, m)

		r := eval(t, e, Distance, map[string]any{Origin: "52.52,13.405", Destination: "51.3397,12.3731", CountryCode: "US"}, tf, nil)
		assert.Equal(t, "from_country", r.Resolution.Quorum)
		assert.Equal(t, 16.3, r.Value)
	})

	t.Run("failed geocode without router configured", func(t *testing.T) {
		m := testModel(t)
		m.Geocoder = &fakeGeocoder{}
		e := testEngine(t, m)

		r := eval(t, e, Distance, map[string]any{Origin: "Nowhere", Destination: "Elsewhere"}, tf, nil)
		origin, _ := r.Lookup(OriginLocation)
		assert.False(t, origin.Known)
		assert.Equal(t, "default", r.Resolution.Quorum)
	})

	t.Run("duration and speed", func(t *testing.T) {
		e := testEngine(t, testModel(t))
		r := eval(t, e, Distance, map[string]any{Duration: 1800.0, Speed: 60.0}, tf, nil)
		assert.InDelta(t, 30.0, r.Value, 1e-9)
	})

	t.Run("duration with country speeds", func(t *testing.T) {
		e := testEngine(t, testModel(t))
		r := eval(t, e, Distance, map[string]any{Duration: 3600.0, CountryCode: "US"}, tf, nil)
		assert.InDelta(t, HarmonicBlend(32, 92, 0.43), r.Value, 1e-9)
		speed, _ := r.Lookup(Speed)
		assert.Equal(t, "from_urbanity_and_country", speed.Quorum)
	})

	t.Run("country without urbanity uses fallback", func(t *testing.T) {
		e := testEngine(t, testModel(t))
		r := eval(t, e, Urbanity, map[string]any{CountryCode: "FR"}, tf, nil)
		assert.Equal(t, "default", r.Resolution.Quorum)
		assert.Equal(t, 0.43, r.Value)
	})
}

func TestScope1FilterNeverSelectsScope3Quorums(t *testing.T) {
	e := testEngine(t, testModel(t))
	filter := decision.NewFilter(decision.GHGProtocolScope1)

	inputs := []map[string]any{
		{},
		{MakeName: "Toyota"},
		{CountryCode: "FR", Duration: 600.0},
		{MakeName: "Toyota", ModelName: "Prius", Year: 2010, CountryCode: "US", Hybridity: true},
	}
	for _, chars := range inputs {
		r := eval(t, e, Carbon, chars, timeframe.Year(2010), filter)
		for _, res := range r.Trace {
			if res.Source == decision.SourceCommittee {
				assert.Contains(t, res.Complies, decision.GHGProtocolScope1, "%s selected %s", res.Quantity, res.Quorum)
			}
		}
	}

	t.Run("no facts leaves scope 1 carbon unknown", func(t *testing.T) {
		r := eval(t, e, Carbon, map[string]any{}, timeframe.Year(2010), filter)
		assert.False(t, r.Known)
	})

	t.Run("enough facts give scope 1 carbon", func(t *testing.T) {
		r := eval(t, e, Carbon, map[string]any{
			MakeName: "Toyota", ModelName: "Prius", Year: 2010, CountryCode: "US", Hybridity: true,
		}, timeframe.Year(2010), filter)
		require.True(t, r.Known)
		assert.Contains(t, r.Compliance(), decision.GHGProtocolScope1)
	})
}
