package decision

import "context"

// ComputeFunc computes a quantity from a quorum's resolved inputs.
//
// Returning a non-nil value selects the quorum. Returning (nil, nil) means the
// quorum ran and the quantity is absent; the committee stops there. Returning
// an error that wraps ErrUnavailable means a collaborator could not answer and
// the next quorum is tried. Any other error is fatal.
type ComputeFunc func(ctx context.Context, in *Inputs) (any, error)

// Quorum is one ranked method for computing a quantity
type Quorum struct {
	Name        string
	Requires    []string
	Appreciates []string
	Complies    []Standard
	Compute     ComputeFunc
}

// IsDefault reports whether the quorum needs no inputs at all
func (q Quorum) IsDefault() bool {
	return len(q.Requires) == 0 && len(q.Appreciates) == 0
}

// dependencies returns every name the quorum may read
func (q Quorum) dependencies() []string {
	deps := make([]string, 0, len(q.Requires)+len(q.Appreciates))
	deps = append(deps, q.Requires...)
	return append(deps, q.Appreciates...)
}

// Committee is the ordered list of quorums for one quantity, most preferred first
type Committee struct {
	Name    string
	Quorums []Quorum
}

// Quorum returns the named quorum
func (c *Committee) Quorum(name string) (Quorum, bool) {
	for _, q := range c.Quorums {
		if q.Name == name {
			return q, true
		}
	}
	return Quorum{}, false
}
