package decision

import (
	"time"

	"github.com/NERVsystems/tripcarbon/pkg/timeframe"
)

// Report is the answer to one evaluation together with its provenance
type Report struct {
	ID         string              `json:"id"`
	Target     string              `json:"target"`
	Value      any                 `json:"value,omitempty"`
	Known      bool                `json:"known"`
	Resolution Resolution          `json:"resolution"`
	Trace      []Resolution        `json:"trace"`
	Timeframe  timeframe.Timeframe `json:"timeframe"`
	Filter     Filter              `json:"filter,omitempty"`
	Duration   time.Duration       `json:"duration_ns"`
}

// Lookup returns the resolution of any quantity touched by the evaluation
func (r *Report) Lookup(quantity string) (Resolution, bool) {
	for _, res := range r.Trace {
		if res.Quantity == quantity {
			return res, true
		}
	}
	return Resolution{}, false
}

// Float returns a known numeric quantity from the trace
func (r *Report) Float(quantity string) (float64, bool) {
	res, ok := r.Lookup(quantity)
	if !ok || !res.Known {
		return 0, false
	}
	return toFloat(res.Value)
}

// Compliance returns the standards the target value complies with: the
// intersection of the tags of every quorum in its lineage. Client values
// comply with everything. An unknown target complies with nothing.
func (r *Report) Compliance() []Standard {
	return r.ComplianceOf(r.Target)
}

// ComplianceOf is Compliance for any quantity in the trace
func (r *Report) ComplianceOf(quantity string) []Standard {
	index := make(map[string]Resolution, len(r.Trace))
	for _, res := range r.Trace {
		index[res.Quantity] = res
	}
	root, ok := index[quantity]
	if !ok || !root.Known {
		return nil
	}

	allowed := make(map[Standard]bool, len(KnownStandards))
	for _, s := range KnownStandards {
		allowed[s] = true
	}

	seen := make(map[string]bool)
	var walk func(name string)
	walk = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		res, ok := index[name]
		if !ok || res.Source != SourceCommittee {
			return
		}
		tags := make(map[Standard]bool, len(res.Complies))
		for _, s := range res.Complies {
			tags[s] = true
		}
		for s := range allowed {
			if !tags[s] {
				delete(allowed, s)
			}
		}
		for _, in := range res.Inputs {
			walk(in)
		}
	}
	walk(quantity)

	out := make([]Standard, 0, len(allowed))
	for _, s := range KnownStandards {
		if allowed[s] {
			out = append(out, s)
		}
	}
	return out
}
