package decision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/tripcarbon/pkg/timeframe"
	"github.com/NERVsystems/tripcarbon/pkg/tracing"
)

// Evaluation is one resolution scope: the client characteristics, the active
// timeframe and filter, and the memo table shared by every quantity resolved
// in it.
type Evaluation struct {
	engine *Engine
	id     string
	chars  Characteristics
	tf     timeframe.Timeframe
	filter Filter
	memo   map[string]*Resolution
	active map[string]bool
	trace  []*Resolution
	logger *slog.Logger
}

// ID returns the evaluation identifier
func (ev *Evaluation) ID() string {
	return ev.id
}

// Resolve returns the value of quantity, computing it at most once. An absent
// quantity is not an error; the returned error is always fatal.
func (ev *Evaluation) Resolve(ctx context.Context, quantity string) (*Resolution, error) {
	if res, ok := ev.memo[quantity]; ok {
		return res, nil
	}
	if v, ok := ev.chars.Get(quantity); ok {
		return ev.remember(clientResolution(quantity, v)), nil
	}

	committee, ok := ev.engine.registry.Committee(quantity)
	if !ok {
		return ev.remember(absentResolution(quantity)), nil
	}

	if ev.active[quantity] {
		return nil, NewConfigError(ErrCyclicDependency, quantity,
			"quantity requested while it is still being resolved")
	}
	ev.active[quantity] = true
	defer delete(ev.active, quantity)

	ctx, span := tracing.StartSpan(ctx, "decision.resolve",
		trace.WithAttributes(tracing.ResolutionAttributes(quantity, "", false)...),
	)
	defer span.End()

	res, err := ev.decide(ctx, committee)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(tracing.ResolutionAttributes(quantity, res.Quorum, res.Known)...)
	return ev.remember(res), nil
}

func (ev *Evaluation) decide(ctx context.Context, c *Committee) (*Resolution, error) {
	hooks := ev.engine.hooks

quorums:
	for _, q := range c.Quorums {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !ev.filter.Permits(q.Complies) {
			ev.logger.Debug("quorum skipped by filter",
				"quantity", c.Name,
				"quorum", q.Name,
				"filter", ev.filter.String())
			if hooks.OnQuorumSkipped != nil {
				hooks.OnQuorumSkipped(c.Name, q.Name)
			}
			continue
		}

		values := make(map[string]any, len(q.Requires)+len(q.Appreciates))
		consumed := make([]string, 0, len(q.Requires)+len(q.Appreciates))
		for _, name := range q.Requires {
			dep, err := ev.Resolve(ctx, name)
			if err != nil {
				return nil, err
			}
			if !dep.Known {
				continue quorums
			}
			values[name] = dep.Value
			consumed = append(consumed, name)
		}
		for _, name := range q.Appreciates {
			dep, err := ev.Resolve(ctx, name)
			if err != nil {
				return nil, err
			}
			if dep.Known {
				values[name] = dep.Value
				consumed = append(consumed, name)
			}
		}

		v, err := ev.call(ctx, c.Name, q, newInputs(c.Name, q, values, ev.tf))
		switch {
		case err == nil:
		case ctx.Err() != nil:
			// a collaborator that failed because of cancellation is not a miss
			return nil, ctx.Err()
		case errors.Is(err, ErrUnavailable):
			ev.logger.Debug("quorum unavailable",
				"quantity", c.Name,
				"quorum", q.Name,
				"error", err)
			if hooks.OnUnavailable != nil {
				hooks.OnUnavailable(c.Name, q.Name, err)
			}
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			var ce *ConfigError
			if errors.As(err, &ce) {
				return nil, err
			}
			return nil, NewConfigError(ErrComputeFailed, c.Name, err.Error()).
				WithQuorum(q.Name).
				Wrap(err)
		}

		res := &Resolution{
			Quantity: c.Name,
			Value:    v,
			Known:    v != nil,
			Source:   SourceCommittee,
			Quorum:   q.Name,
			Complies: q.Complies,
			Inputs:   consumed,
		}
		if !res.Known {
			res.Source = SourceNone
		}
		ev.logger.Debug("quorum selected",
			"quantity", c.Name,
			"quorum", q.Name,
			"known", res.Known)
		if hooks.OnQuorumSelected != nil {
			hooks.OnQuorumSelected(c.Name, q.Name)
		}
		return res, nil
	}

	return absentResolution(c.Name), nil
}

// call runs a compute function, turning panics into configuration errors
func (ev *Evaluation) call(ctx context.Context, quantity string, q Quorum, in *Inputs) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*ConfigError); ok {
				v, err = nil, ce
				return
			}
			v = nil
			err = NewConfigError(ErrComputeFailed, quantity, fmt.Sprintf("compute panicked: %v", r)).
				WithQuorum(q.Name)
		}
	}()
	return q.Compute(ctx, in)
}

func (ev *Evaluation) remember(res *Resolution) *Resolution {
	ev.memo[res.Quantity] = res
	ev.trace = append(ev.trace, res)
	return res
}

// Lookup returns the memoized resolution for quantity, if it was resolved
func (ev *Evaluation) Lookup(quantity string) (Resolution, bool) {
	res, ok := ev.memo[quantity]
	if !ok {
		return Resolution{}, false
	}
	return *res, true
}

// Report builds the provenance report for target from what has been resolved so far
func (ev *Evaluation) Report(target string) *Report {
	r := &Report{
		ID:        ev.id,
		Target:    target,
		Timeframe: ev.tf,
		Filter:    ev.filter,
		Trace:     make([]Resolution, len(ev.trace)),
	}
	for i, res := range ev.trace {
		r.Trace[i] = *res
	}
	if res, ok := ev.memo[target]; ok {
		r.Resolution = *res
		r.Value = res.Value
		r.Known = res.Known
	} else {
		r.Resolution = *absentResolution(target)
	}
	return r
}
