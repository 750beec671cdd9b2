package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/NERVsystems/tripcarbon/pkg/decision"
	"github.com/NERVsystems/tripcarbon/pkg/timeframe"
)

// DefaultConcurrency bounds EstimateAll when no limit is configured
const DefaultConcurrency = 4

// Estimate is the result for one trip
type Estimate struct {
	ID         string                `json:"id"`
	Timeframe  timeframe.Timeframe   `json:"timeframe"`
	Comply     decision.Filter       `json:"comply,omitempty"`
	Values     map[string]float64    `json:"values"`
	Methods    map[string]string     `json:"methods"`
	Units      map[string]string     `json:"units"`
	Compliance []decision.Standard   `json:"compliance"`
	Trace      []decision.Resolution `json:"trace,omitempty"`
}

// Carbon returns the total emissions in kg CO2e, if known
func (e *Estimate) Carbon() (float64, bool) {
	v, ok := e.Values[Carbon]
	return v, ok
}

// EstimatorOption configures an Estimator
type EstimatorOption func(*Estimator)

// WithConcurrency bounds how many trips EstimateAll evaluates at once
func WithConcurrency(n int) EstimatorOption {
	return func(e *Estimator) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithEngineOptions passes options through to the decision engine
func WithEngineOptions(opts ...decision.Option) EstimatorOption {
	return func(e *Estimator) {
		e.engineOpts = append(e.engineOpts, opts...)
	}
}

// WithTrace controls whether estimates carry the full provenance trace
func WithTrace(enabled bool) EstimatorOption {
	return func(e *Estimator) {
		e.trace = enabled
	}
}

// Estimator evaluates trips against the emission model
type Estimator struct {
	engine      *decision.Engine
	engineOpts  []decision.Option
	concurrency int
	trace       bool
	logger      *slog.Logger
}

// NewEstimator builds the model registry and an engine over it
func NewEstimator(m Model, opts ...EstimatorOption) (*Estimator, error) {
	if m.Logger == nil {
		m.Logger = slog.Default().With("component", "trip")
	}
	e := &Estimator{
		concurrency: DefaultConcurrency,
		trace:       true,
		logger:      m.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}

	reg, err := NewRegistry(m)
	if err != nil {
		return nil, fmt.Errorf("building trip model: %w", err)
	}
	engineOpts := append([]decision.Option{decision.WithLogger(m.Logger)}, e.engineOpts...)
	e.engine, err = decision.NewEngine(reg, engineOpts...)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Registry exposes the committees for introspection
func (e *Estimator) Registry() *decision.Registry {
	return e.engine.Registry()
}

// Estimate evaluates one trip
func (e *Estimator) Estimate(ctx context.Context, t Trip, tf timeframe.Timeframe, filter decision.Filter) (*Estimate, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	report, err := e.engine.EvaluateTargets(ctx, Outputs, t.Characteristics(), tf, filter)
	if err != nil {
		return nil, err
	}

	est := &Estimate{
		ID:         report.ID,
		Timeframe:  tf,
		Comply:     filter,
		Values:     make(map[string]float64, len(Outputs)),
		Methods:    make(map[string]string, len(Outputs)),
		Units:      make(map[string]string, len(Outputs)),
		Compliance: []decision.Standard{},
	}
	if c := report.Compliance(); c != nil {
		est.Compliance = c
	}
	for _, q := range Outputs {
		res, ok := report.Lookup(q)
		if !ok || !res.Known {
			continue
		}
		v, ok := report.Float(q)
		if !ok {
			continue
		}
		est.Values[q] = v
		est.Units[q] = Units[q]
		if res.Source == decision.SourceClient {
			est.Methods[q] = string(decision.SourceClient)
		} else {
			est.Methods[q] = res.Quorum
		}
	}
	if e.trace {
		est.Trace = report.Trace
	}

	e.logger.Debug("trip estimated",
		"evaluation", report.ID,
		"known", report.Known,
		"duration", report.Duration)
	return est, nil
}

// BatchResult is one entry of EstimateAll. Invalid trips carry an error
// instead of failing the batch.
type BatchResult struct {
	Index    int       `json:"index"`
	Estimate *Estimate `json:"estimate,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// EstimateAll evaluates independent trips in parallel. Configuration errors
// and cancellation abort the batch.
func (e *Estimator) EstimateAll(ctx context.Context, trips []Trip, tf timeframe.Timeframe, filter decision.Filter) ([]BatchResult, error) {
	results := make([]BatchResult, len(trips))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, t := range trips {
		g.Go(func() error {
			est, err := e.Estimate(ctx, t, tf, filter)
			results[i] = BatchResult{Index: i, Estimate: est}
			if err == nil {
				return nil
			}
			var ce *decision.ConfigError
			if errors.As(err, &ce) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			results[i].Error = err.Error()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
