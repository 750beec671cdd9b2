package decision

import (
	"fmt"
	"time"

	"github.com/NERVsystems/tripcarbon/pkg/timeframe"
)

// Inputs is the resolved view a quorum computes from. Only the names the
// quorum declared in Requires or Appreciates can be read; reading anything
// else panics with an UNDECLARED_INPUT ConfigError, which the engine turns
// into a fatal evaluation error.
type Inputs struct {
	quantity  string
	quorum    string
	declared  map[string]struct{}
	values    map[string]any
	timeframe timeframe.Timeframe
}

// NewInputs builds Inputs outside the engine. It is mostly useful for testing
// a single quorum's compute function.
func NewInputs(q Quorum, values map[string]any, tf timeframe.Timeframe) *Inputs {
	return newInputs("", q, values, tf)
}

func newInputs(quantity string, q Quorum, values map[string]any, tf timeframe.Timeframe) *Inputs {
	declared := make(map[string]struct{}, len(q.Requires)+len(q.Appreciates))
	for _, name := range q.Requires {
		declared[name] = struct{}{}
	}
	for _, name := range q.Appreciates {
		declared[name] = struct{}{}
	}
	kept := make(map[string]any, len(values))
	for name, v := range values {
		if _, ok := declared[name]; ok && v != nil {
			kept[name] = v
		}
	}
	return &Inputs{
		quantity:  quantity,
		quorum:    q.Name,
		declared:  declared,
		values:    kept,
		timeframe: tf,
	}
}

// Timeframe returns the active measurement window
func (in *Inputs) Timeframe() timeframe.Timeframe {
	return in.timeframe
}

func (in *Inputs) check(name string) {
	if _, ok := in.declared[name]; !ok {
		panic(NewConfigError(ErrUndeclaredInput, in.quantity,
			fmt.Sprintf("read of undeclared characteristic %q", name)).
			WithQuorum(in.quorum).
			WithGuidance("Add the characteristic to the quorum's requires or appreciates list"))
	}
}

func (in *Inputs) typeError(name, want string, v any) *ConfigError {
	return NewConfigError(ErrInputType, in.quantity,
		fmt.Sprintf("characteristic %q is %T, want %s", name, v, want)).
		WithQuorum(in.quorum)
}

// Has reports whether a declared characteristic resolved to a value
func (in *Inputs) Has(name string) bool {
	in.check(name)
	_, ok := in.values[name]
	return ok
}

// Get returns a declared characteristic
func (in *Inputs) Get(name string) (any, bool) {
	in.check(name)
	v, ok := in.values[name]
	return v, ok
}

// Float returns a declared numeric characteristic, or 0 when it is absent
func (in *Inputs) Float(name string) float64 {
	v, ok := in.Get(name)
	if !ok {
		return 0
	}
	f, ok := toFloat(v)
	if !ok {
		panic(in.typeError(name, "number", v))
	}
	return f
}

// Int returns a declared integer characteristic, or 0 when it is absent
func (in *Inputs) Int(name string) int {
	v, ok := in.Get(name)
	if !ok {
		return 0
	}
	i, ok := toInt(v)
	if !ok {
		panic(in.typeError(name, "integer", v))
	}
	return i
}

// String returns a declared string characteristic, or "" when it is absent
func (in *Inputs) String(name string) string {
	v, ok := in.Get(name)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		panic(in.typeError(name, "string", v))
	}
}

// Bool returns a declared boolean characteristic, or false when it is absent
func (in *Inputs) Bool(name string) bool {
	v, ok := in.Get(name)
	if !ok {
		return false
	}
	b, ok := toBool(v)
	if !ok {
		panic(in.typeError(name, "boolean", v))
	}
	return b
}

// Date returns a declared date characteristic. ok is false when the value is
// absent or cannot be read as a date.
func (in *Inputs) Date(name string) (time.Time, bool) {
	v, present := in.Get(name)
	if !present {
		return time.Time{}, false
	}
	return toDate(v)
}

// Record returns a declared characteristic as T. Client-supplied values and
// committee results must agree on the record type; a mismatch is a
// configuration error.
func Record[T any](in *Inputs, name string) T {
	v, ok := in.Get(name)
	if !ok {
		var zero T
		return zero
	}
	rec, ok := v.(T)
	if !ok {
		var zero T
		panic(in.typeError(name, fmt.Sprintf("%T", zero), v))
	}
	return rec
}
