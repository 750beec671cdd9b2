package trip

import (
	"errors"
	"log/slog"

	"github.com/NERVsystems/tripcarbon/pkg/decision"
	"github.com/NERVsystems/tripcarbon/pkg/refdata"
)

// Every quorum in the model is tagged with one of these.
var (
	complyAll    = []decision.Standard{decision.GHGProtocolScope1, decision.GHGProtocolScope3, decision.ISO}
	complyScope3 = []decision.Standard{decision.GHGProtocolScope3}
)

// Model holds the collaborators the committees call into
type Model struct {
	Source    refdata.Source
	Fallbacks refdata.Fallbacks
	// Geocoder and Router may be nil; the quorums that need them then fall through
	Geocoder Geocoder
	Router   Router
	Logger   *slog.Logger
}

// NewRegistry registers every committee of the model and seals the registry
func NewRegistry(m Model) (*decision.Registry, error) {
	if m.Source == nil {
		return nil, errors.New("trip model needs a reference data source")
	}
	if m.Logger == nil {
		m.Logger = slog.Default().With("component", "trip")
	}

	b := decision.NewBuilder()
	m.registerEmissions(b)
	m.registerDistance(b)
	m.registerEfficiency(b)
	m.registerVehicle(b)
	return b.Build()
}

// lookupMiss converts a reference data miss into a fall-through
func lookupMiss(err error) error {
	if errors.Is(err, refdata.ErrNotFound) {
		return decision.Unavailable(err)
	}
	return err
}
