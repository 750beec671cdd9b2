package trip

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NERVsystems/tripcarbon/pkg/decision"
	"github.com/NERVsystems/tripcarbon/pkg/timeframe"
)

func ptr[T any](v T) *T { return &v }

func TestTrip_Validate(t *testing.T) {
	tests := []struct {
		name    string
		trip    Trip
		wantErr bool
	}{
		{"empty trip", Trip{}, false},
		{"full trip", Trip{Make: "Toyota", Model: "Prius", Year: 2010, CountryCode: "us", Date: "2010-05-01", Urbanity: ptr(0.3)}, false},
		{"year too early", Trip{Year: 1850}, true},
		{"bad country", Trip{CountryCode: "USA"}, true},
		{"bad date", Trip{Date: "05/01/2010"}, true},
		{"negative duration", Trip{Duration: -1}, true},
		{"urbanity above one", Trip{Urbanity: ptr(1.5)}, true},
		{"zero speed", Trip{Speed: ptr(0.0)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trip.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTrip_Characteristics(t *testing.T) {
	c := Trip{
		Make:        " Toyota ",
		CountryCode: "de",
		Hybrid:      ptr(false),
		Date:        "2010-05-01",
		Distance:    ptr(12.0),
	}.Characteristics()

	assert.Equal(t, []string{CountryCode, Date, Distance, Hybridity, MakeName}, c.Names())
	v, _ := c.Get(MakeName)
	assert.Equal(t, "Toyota", v)
	v, _ = c.Get(CountryCode)
	assert.Equal(t, "DE", v)
	v, _ = c.Get(Date)
	assert.Equal(t, time.Date(2010, 5, 1, 0, 0, 0, 0, time.UTC), v)
	v, _ = c.Get(Hybridity)
	assert.Equal(t, false, v)
}

func TestEstimator_Estimate(t *testing.T) {
	est, err := NewEstimator(testModel(t))
	require.NoError(t, err)

	t.Run("full trip", func(t *testing.T) {
		e, err := est.Estimate(context.Background(), Trip{
			Make: "Toyota", Model: "Prius", Year: 2010, CountryCode: "US", Hybrid: ptr(true), Distance: ptr(100.0),
		}, timeframe.Year(2010), nil)
		require.NoError(t, err)

		for _, q := range Outputs {
			assert.Contains(t, e.Values, q)
		}
		assert.Equal(t, "client", e.Methods[Distance])
		assert.Equal(t, "from_fuel_efficiency_city_and_highway_and_urbanity", e.Methods[FuelEfficiency])
		assert.Equal(t, "km", e.Units[Distance])

		carbon, ok := e.Carbon()
		require.True(t, ok)
		sum := e.Values[CO2Emission] + e.Values[CH4Emission] + e.Values[N2OEmission] + e.Values[HFCEmission]
		assert.InDelta(t, sum, carbon, 1e-9)
		assert.Greater(t, carbon, 0.0)
		assert.Equal(t, decision.KnownStandards, e.Compliance)
		assert.NotEmpty(t, e.Trace)
		assert.NotEmpty(t, e.ID)
	})

	t.Run("trip outside timeframe has zero emissions", func(t *testing.T) {
		e, err := est.Estimate(context.Background(), Trip{Date: "2009-12-31"}, timeframe.Year(2010), nil)
		require.NoError(t, err)
		assert.Equal(t, 0.0, e.Values[Carbon])
		assert.Greater(t, e.Values[Distance], 0.0)
		assert.Equal(t, []decision.Standard{decision.GHGProtocolScope3}, e.Compliance)
	})

	t.Run("invalid trip", func(t *testing.T) {
		_, err := est.Estimate(context.Background(), Trip{Year: 1}, timeframe.Year(2010), nil)
		assert.ErrorIs(t, err, ErrInvalidTrip)
	})
}

func TestEstimator_UnknownCarbonHasEmptyCompliance(t *testing.T) {
	est, err := NewEstimator(testModel(t))
	require.NoError(t, err)

	// without a country only the world-average distance applies, which iso excludes
	e, err := est.Estimate(context.Background(), Trip{}, timeframe.Year(2010), decision.NewFilter(decision.ISO))
	require.NoError(t, err)
	_, known := e.Carbon()
	require.False(t, known)
	require.NotNil(t, e.Compliance)
	assert.Empty(t, e.Compliance)

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"compliance":[]`)
}

func TestEstimator_EstimateAll(t *testing.T) {
	est, err := NewEstimator(testModel(t), WithConcurrency(2), WithTrace(false))
	require.NoError(t, err)

	trips := []Trip{
		{Make: "Honda", Model: "Civic", Year: 2008},
		{CountryCode: "XXX"},
		{Make: "Tesla", Model: "Model S", Distance: ptr(50.0)},
		{},
	}
	results, err := est.EstimateAll(context.Background(), trips, timeframe.Year(2010), nil)
	require.NoError(t, err)
	require.Len(t, results, len(trips))

	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
	assert.NotEmpty(t, results[1].Error)
	assert.Nil(t, results[1].Estimate)
	for _, i := range []int{0, 2, 3} {
		require.Empty(t, results[i].Error)
		require.NotNil(t, results[i].Estimate)
		assert.Empty(t, results[i].Estimate.Trace)
		assert.Contains(t, results[i].Estimate.Values, Carbon)
	}

	tesla := results[2].Estimate
	assert.Equal(t, "from_fuel_efficiency_city_and_highway_and_urbanity", tesla.Methods[FuelEfficiency])
	assert.Greater(t, tesla.Values[FuelUse], tesla.Values[Distance]/tesla.Values[FuelEfficiency])
}

func TestEstimator_EstimateAllCancelled(t *testing.T) {
	est, err := NewEstimator(testModel(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = est.EstimateAll(ctx, []Trip{{}, {}}, timeframe.Year(2010), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
