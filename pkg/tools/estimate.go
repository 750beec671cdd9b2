package tools

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/tripcarbon/pkg/decision"
	"github.com/NERVsystems/tripcarbon/pkg/timeframe"
	"github.com/NERVsystems/tripcarbon/pkg/trip"
)

// EstimateTripInput is a trip plus the evaluation settings
type EstimateTripInput struct {
	trip.Trip
	TimeframeFrom  string `json:"timeframe_from,omitempty"`
	TimeframeUntil string `json:"timeframe_until,omitempty"`
	// Comply overrides the default filter when present, even if empty
	Comply []string `json:"comply,omitempty"`
}

// EstimateTripTool returns the tool definition for trip estimates
func EstimateTripTool() mcp.Tool {
	return mcp.NewTool("estimate_automobile_trip",
		mcp.WithDescription("Estimate the greenhouse-gas emissions of one automobile trip. Every parameter is optional; missing facts are filled in from reference data and averages. The result lists each value with the method that produced it."),
		mcp.WithString("make", mcp.Description("Vehicle make, e.g. Toyota")),
		mcp.WithString("model", mcp.Description("Vehicle model, e.g. Prius")),
		mcp.WithNumber("year", mcp.Description("Model year")),
		mcp.WithString("fuel_code", mcp.Description("Fuel code: G gasoline, P premium, D diesel, E ethanol, C natural gas, EL electricity")),
		mcp.WithString("size_class", mcp.Description("Size class, e.g. Midsize")),
		mcp.WithString("country", mcp.Description("ISO 3166-1 alpha-2 country code")),
		mcp.WithBoolean("hybrid", mcp.Description("Whether the vehicle is a hybrid")),
		mcp.WithString("origin", mcp.Description("Start of the trip: address, decimal lat,lon, DMS or MGRS")),
		mcp.WithString("destination", mcp.Description("End of the trip: address, decimal lat,lon, DMS or MGRS")),
		mcp.WithNumber("duration", mcp.Description("Trip duration in seconds")),
		mcp.WithString("date", mcp.Description("Trip date, YYYY-MM-DD")),
		mcp.WithNumber("distance", mcp.Description("Known trip distance in km")),
		mcp.WithNumber("speed", mcp.Description("Known average speed in km/h")),
		mcp.WithNumber("fuel_efficiency", mcp.Description("Known fuel efficiency in km/l")),
		mcp.WithNumber("urbanity", mcp.Description("Share of city driving, 0 to 1")),
		mcp.WithString("timeframe_from", mcp.Description("Start of the reporting timeframe, YYYY-MM-DD (default: current year)")),
		mcp.WithString("timeframe_until", mcp.Description("End of the reporting timeframe, exclusive, YYYY-MM-DD")),
		mcp.WithArray("comply",
			mcp.Description("Standards every method must comply with: ghg_protocol_scope_1, ghg_protocol_scope_3, iso"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

// HandleEstimateTrip implements estimate_automobile_trip
func (r *Registry) HandleEstimateTrip(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("estimate_automobile_trip", func(ctx context.Context, input EstimateTripInput, logger *slog.Logger) (any, error) {
		tf, err := timeframe.Parse(input.TimeframeFrom, input.TimeframeUntil)
		if err != nil {
			return nil, NewError(ErrInvalidInput, err.Error()).
				WithGuidance("Give both timeframe_from and timeframe_until as YYYY-MM-DD, or neither")
		}

		filter := r.comply
		if input.Comply != nil {
			filter, err = decision.ParseFilter(input.Comply)
			if err != nil {
				return nil, NewError(ErrInvalidInput, err.Error()).
					WithSuggestions(standardNames()...)
			}
		}

		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}

		est, err := r.estimator.Estimate(ctx, input.Trip, tf, filter)
		if err != nil {
			return nil, err
		}
		logger.Debug("trip estimated", "evaluation", est.ID, "values", len(est.Values))
		return est, nil
	})(ctx, req)
}

func standardNames() []string {
	names := make([]string, len(decision.KnownStandards))
	for i, s := range decision.KnownStandards {
		names[i] = string(s)
	}
	return names
}
