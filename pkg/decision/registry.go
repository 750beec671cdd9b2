package decision

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds every committee of a model. Committees are registered at
// startup and the registry is sealed before any evaluation runs; a sealed
// registry is read-only and safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	committees map[string]*Committee
	sealed     bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		committees: make(map[string]*Committee),
	}
}

// Register appends q to the committee for quantity. Later registrations have
// lower preference.
func (r *Registry) Register(quantity string, q Quorum) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return NewConfigError(ErrRegistrySealed, quantity, "registry is sealed").
			WithQuorum(q.Name)
	}
	if quantity == "" {
		return NewConfigError(ErrInvalidQuorum, quantity, "quantity name is empty").
			WithQuorum(q.Name)
	}
	if q.Name == "" {
		return NewConfigError(ErrInvalidQuorum, quantity, "quorum name is empty")
	}
	if q.Compute == nil {
		return NewConfigError(ErrInvalidQuorum, quantity, "quorum has no compute function").
			WithQuorum(q.Name)
	}

	c, ok := r.committees[quantity]
	if !ok {
		c = &Committee{Name: quantity}
		r.committees[quantity] = c
	}
	if _, dup := c.Quorum(q.Name); dup {
		return NewConfigError(ErrDuplicateQuorum, quantity,
			fmt.Sprintf("quorum %q is already registered", q.Name)).
			WithQuorum(q.Name).
			WithGuidance("Quorum names must be unique within a committee")
	}

	q.Requires = append([]string(nil), q.Requires...)
	q.Appreciates = append([]string(nil), q.Appreciates...)
	q.Complies = append([]Standard(nil), q.Complies...)
	c.Quorums = append(c.Quorums, q)
	return nil
}

// Seal validates the dependency graph and freezes the registry
func (r *Registry) Seal() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return nil
	}
	if err := r.validateLocked(); err != nil {
		return err
	}
	r.sealed = true
	return nil
}

// Sealed reports whether the registry is frozen
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Validate checks that committees form a DAG over requires and appreciates edges
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.validateLocked()
}

// Committee returns the committee for a quantity
func (r *Registry) Committee(name string) (*Committee, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.committees[name]
	return c, ok
}

// Quantities returns every quantity with a committee, sorted
func (r *Registry) Quantities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.committees))
	for name := range r.committees {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Inputs returns the names that appear as dependencies but have no committee.
// These can only come from the client.
func (r *Registry) Inputs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, c := range r.committees {
		for _, q := range c.Quorums {
			for _, dep := range q.dependencies() {
				if _, ok := r.committees[dep]; !ok {
					seen[dep] = struct{}{}
				}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const (
	unvisited = iota
	visiting
	visited
)

func (r *Registry) validateLocked() error {
	state := make(map[string]int, len(r.committees))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visited:
			return nil
		case visiting:
			start := 0
			for i, p := range path {
				if p == name {
					start = i
					break
				}
			}
			cycle := append(append([]string(nil), path[start:]...), name)
			return NewConfigError(ErrCyclicDependency, name,
				"dependency cycle "+strings.Join(cycle, " -> ")).
				WithGuidance("A committee must never require, directly or transitively, its own quantity")
		}

		c, ok := r.committees[name]
		if !ok {
			state[name] = visited
			return nil
		}

		state[name] = visiting
		path = append(path, name)
		for _, q := range c.Quorums {
			for _, dep := range q.dependencies() {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		state[name] = visited
		return nil
	}

	names := make([]string, 0, len(r.committees))
	for name := range r.committees {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// Builder registers quorums fluently and keeps the first error
type Builder struct {
	registry *Registry
	err      error
}

// NewBuilder starts a new registry
func NewBuilder() *Builder {
	return &Builder{registry: NewRegistry()}
}

// Add registers a quorum for quantity
func (b *Builder) Add(quantity string, q Quorum) *Builder {
	if b.err != nil {
		return b
	}
	b.err = b.registry.Register(quantity, q)
	return b
}

// Build seals and returns the registry
func (b *Builder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.registry.Seal(); err != nil {
		return nil, err
	}
	return b.registry, nil
}
