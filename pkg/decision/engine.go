package decision

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/tripcarbon/pkg/timeframe"
	"github.com/NERVsystems/tripcarbon/pkg/tracing"
)

// Hooks receive engine events. Any field may be nil.
type Hooks struct {
	// OnQuorumSelected fires when a quorum produced the value of a quantity
	OnQuorumSelected func(quantity, quorum string)
	// OnQuorumSkipped fires when the compliance filter excluded a quorum
	OnQuorumSkipped func(quantity, quorum string)
	// OnUnavailable fires when a quorum's collaborator could not answer
	OnUnavailable func(quantity, quorum string, err error)
	// OnEvaluation fires once per Evaluate call
	OnEvaluation func(target string, known bool, elapsed time.Duration, err error)
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHooks installs event hooks
func WithHooks(h Hooks) Option {
	return func(e *Engine) {
		e.hooks = h
	}
}

// Engine evaluates quantities against a sealed registry. It holds no
// per-trip state and is safe for concurrent use.
type Engine struct {
	registry *Registry
	logger   *slog.Logger
	hooks    Hooks
}

// NewEngine creates an engine. The registry must be sealed.
func NewEngine(r *Registry, opts ...Option) (*Engine, error) {
	if r == nil || !r.Sealed() {
		return nil, NewConfigError(ErrRegistryOpen, "", "engine requires a sealed registry").
			WithGuidance("Call Seal on the registry after registering every committee")
	}
	e := &Engine{
		registry: r,
		logger:   slog.Default().With("component", "decision"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Registry returns the sealed registry the engine evaluates against
func (e *Engine) Registry() *Registry {
	return e.registry
}

// NewEvaluation starts a resolution scope. Every quantity resolved through the
// returned evaluation shares one memo table. An Evaluation must not be used
// from more than one goroutine.
func (e *Engine) NewEvaluation(chars Characteristics, tf timeframe.Timeframe, filter Filter) *Evaluation {
	id := uuid.NewString()
	return &Evaluation{
		engine: e,
		id:     id,
		chars:  chars,
		tf:     tf,
		filter: filter,
		memo:   make(map[string]*Resolution),
		active: make(map[string]bool),
		logger: e.logger.With("evaluation", id),
	}
}

// Evaluate resolves target for one set of characteristics
func (e *Engine) Evaluate(ctx context.Context, target string, chars Characteristics, tf timeframe.Timeframe, filter Filter) (*Report, error) {
	return e.EvaluateTargets(ctx, []string{target}, chars, tf, filter)
}

// EvaluateTargets resolves several quantities in one evaluation. The report
// is built for the first target; the others are reachable through its trace.
func (e *Engine) EvaluateTargets(ctx context.Context, targets []string, chars Characteristics, tf timeframe.Timeframe, filter Filter) (*Report, error) {
	if len(targets) == 0 {
		return nil, NewConfigError(ErrInvalidQuorum, "", "no target quantity given")
	}
	start := time.Now()
	ev := e.NewEvaluation(chars, tf, filter)

	ctx, span := tracing.StartSpan(ctx, "decision.evaluate",
		trace.WithAttributes(tracing.EvaluationAttributes(ev.id, targets[0], filter.String(), tf.String())...),
	)
	defer span.End()

	for _, target := range targets {
		_, err := ev.Resolve(ctx, target)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			e.logger.Error("evaluation failed",
				"evaluation", ev.id,
				"target", target,
				"error", err)
			e.observe(targets[0], false, time.Since(start), err)
			return nil, err
		}
	}

	report := ev.Report(targets[0])
	report.Duration = time.Since(start)
	span.SetStatus(codes.Ok, "")
	e.observe(report.Target, report.Known, report.Duration, nil)
	return report, nil
}

func (e *Engine) observe(target string, known bool, elapsed time.Duration, err error) {
	if e.hooks.OnEvaluation != nil {
		e.hooks.OnEvaluation(target, known, elapsed, err)
	}
}
