package decision

import (
	"fmt"
	"sort"
	"strings"
)

// Standard is a reporting standard a quorum claims to comply with
type Standard string

// Known standards
const (
	GHGProtocolScope1 Standard = "ghg_protocol_scope_1"
	GHGProtocolScope3 Standard = "ghg_protocol_scope_3"
	ISO               Standard = "iso"
)

// KnownStandards lists every standard the models are tagged with
var KnownStandards = []Standard{GHGProtocolScope1, GHGProtocolScope3, ISO}

// ParseStandard accepts a standard name in any case, with dashes or underscores
func ParseStandard(s string) (Standard, error) {
	norm := Standard(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, known := range KnownStandards {
		if norm == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown standard %q", s)
}

// Filter is the set of standards a caller requires. An empty filter places no
// restriction on quorum selection.
type Filter []Standard

// NewFilter builds a filter, dropping duplicates
func NewFilter(standards ...Standard) Filter {
	seen := make(map[Standard]struct{}, len(standards))
	f := make(Filter, 0, len(standards))
	for _, s := range standards {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		f = append(f, s)
	}
	sort.Slice(f, func(i, j int) bool { return f[i] < f[j] })
	return f
}

// ParseFilter parses a list of standard names
func ParseFilter(names []string) (Filter, error) {
	standards := make([]Standard, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		s, err := ParseStandard(n)
		if err != nil {
			return nil, err
		}
		standards = append(standards, s)
	}
	return NewFilter(standards...), nil
}

// Empty reports whether the filter places no restriction
func (f Filter) Empty() bool {
	return len(f) == 0
}

// Permits reports whether a quorum with the given tags may be selected.
// Untagged quorums are never permitted by a non-empty filter.
func (f Filter) Permits(complies []Standard) bool {
	if f.Empty() {
		return true
	}
	for _, want := range f {
		for _, have := range complies {
			if want == have {
				return true
			}
		}
	}
	return false
}

func (f Filter) String() string {
	if f.Empty() {
		return "none"
	}
	parts := make([]string, len(f))
	for i, s := range f {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}
