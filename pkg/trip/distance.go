package trip

import (
	"context"
	"fmt"

	"github.com/NERVsystems/tripcarbon/pkg/coords"
	"github.com/NERVsystems/tripcarbon/pkg/decision"
	"github.com/NERVsystems/tripcarbon/pkg/geo"
	"github.com/NERVsystems/tripcarbon/pkg/refdata"
)

func (m Model) registerDistance(b *decision.Builder) {
	b.Add(Distance, decision.Quorum{
		Name:     "from_origin_and_destination_locations",
		Requires: []string{OriginLocation, DestinationLocation},
		Complies: complyAll,
		Compute: func(ctx context.Context, in *decision.Inputs) (any, error) {
			if m.Router == nil {
				return nil, decision.Unavailablef("no router configured")
			}
			origin := decision.Record[geo.Location](in, OriginLocation)
			destination := decision.Record[geo.Location](in, DestinationLocation)
			km, err := m.Router.RouteDistance(ctx, origin, destination)
			if err != nil {
				m.Logger.Warn("route distance unavailable",
					"origin", origin.String(),
					"destination", destination.String(),
					"error", err)
				return nil, decision.Unavailable(err)
			}
			return km, nil
		},
	})
	b.Add(Distance, decision.Quorum{
		Name:     "from_duration_and_speed",
		Requires: []string{Duration, Speed},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			return in.Float(Duration) / 3600 * in.Float(Speed), nil
		},
	})
	b.Add(Distance, decision.Quorum{
		Name:     "from_country",
		Requires: []string{Country},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			c := decision.Record[refdata.Country](in, Country)
			if c.TripDistance <= 0 {
				return nil, decision.Unavailablef("country %s has no average trip distance", c.Code)
			}
			return c.TripDistance, nil
		},
	})
	b.Add(Distance, decision.Quorum{
		Name:     "default",
		Complies: complyScope3,
		Compute: func(context.Context, *decision.Inputs) (any, error) {
			return m.Fallbacks.Country.TripDistance, nil
		},
	})

	b.Add(OriginLocation, m.locationQuorum(Origin))
	b.Add(DestinationLocation, m.locationQuorum(Destination))

	b.Add(Speed, decision.Quorum{
		Name:     "from_urbanity_and_country",
		Requires: []string{Urbanity, Country},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			c := decision.Record[refdata.Country](in, Country)
			if c.CitySpeed <= 0 || c.HighwaySpeed <= 0 {
				return nil, decision.Unavailablef("country %s has no average speeds", c.Code)
			}
			return HarmonicBlend(c.CitySpeed, c.HighwaySpeed, in.Float(Urbanity)), nil
		},
	})
	b.Add(Speed, decision.Quorum{
		Name:     "from_urbanity",
		Requires: []string{Urbanity},
		Complies: complyScope3,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			c := m.Fallbacks.Country
			return HarmonicBlend(c.CitySpeed, c.HighwaySpeed, in.Float(Urbanity)), nil
		},
	})

	b.Add(Urbanity, decision.Quorum{
		Name:     "from_country",
		Requires: []string{Country},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			c := decision.Record[refdata.Country](in, Country)
			if c.Urbanity <= 0 {
				return nil, decision.Unavailablef("country %s has no urbanity", c.Code)
			}
			return c.Urbanity, nil
		},
	})
	b.Add(Urbanity, decision.Quorum{
		Name:     "default",
		Complies: complyScope3,
		Compute: func(context.Context, *decision.Inputs) (any, error) {
			return m.Fallbacks.Country.Urbanity, nil
		},
	})

	b.Add(Country, decision.Quorum{
		Name:     "from_country_code",
		Requires: []string{CountryCode},
		Complies: complyAll,
		Compute: func(_ context.Context, in *decision.Inputs) (any, error) {
			c, err := m.Source.Country(in.String(CountryCode))
			if err != nil {
				return nil, lookupMiss(err)
			}
			return c, nil
		},
	})
}

// locationQuorum resolves an address to coordinates. Addresses that already
// are coordinates never reach the geocoder.
func (m Model) locationQuorum(address string) decision.Quorum {
	return decision.Quorum{
		Name:        fmt.Sprintf("from_%s", address),
		Requires:    []string{address},
		Appreciates: []string{CountryCode},
		Complies:    complyAll,
		Compute: func(ctx context.Context, in *decision.Inputs) (any, error) {
			text := in.String(address)
			if loc, _, err := coords.Parse(text); err == nil {
				return loc, nil
			}
			if m.Geocoder == nil {
				return nil, decision.Unavailablef("no geocoder configured for %q", text)
			}
			loc, err := m.Geocoder.Geocode(ctx, Query{Address: text, CountryCode: in.String(CountryCode)})
			if err != nil {
				m.Logger.Warn("geocoding failed",
					"address", text,
					"error", err)
				return nil, decision.Unavailable(err)
			}
			return loc, nil
		},
	}
}
