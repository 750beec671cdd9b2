package decision

import "sort"

// Characteristics holds the facts a client supplied about one trip. It is
// immutable once built; a name that is not present is absent.
type Characteristics struct {
	values map[string]any
}

// NewCharacteristics copies values into a new store. Nil values are dropped so
// that an explicit nil behaves like an omitted characteristic.
func NewCharacteristics(values map[string]any) Characteristics {
	c := Characteristics{values: make(map[string]any, len(values))}
	for name, v := range values {
		if v == nil {
			continue
		}
		c.values[name] = v
	}
	return c
}

// Get returns the client value for name
func (c Characteristics) Get(name string) (any, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Has reports whether the client supplied name
func (c Characteristics) Has(name string) bool {
	_, ok := c.values[name]
	return ok
}

// Len returns the number of supplied characteristics
func (c Characteristics) Len() int {
	return len(c.values)
}

// Names returns the supplied names in sorted order
func (c Characteristics) Names() []string {
	names := make([]string, 0, len(c.values))
	for name := range c.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
