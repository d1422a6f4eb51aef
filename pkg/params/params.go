// Package params provides a small named-vector container with a fixed key
// set, used to hold the geometric parameters of a surface.
package params

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Entry is a single (name, value) pair. A nil Value means "unset" at
// construction and "leave unchanged" in keyed updates.
type Entry struct {
	Name  string
	Value *r3.Vec
}

// View is read-only access to a Set.
type View interface {
	Keys() []string
	Len() int
	Has(name string) bool
	Get(name string) (*r3.Vec, error)
}

// Set maps a fixed, ordered list of keys to optional vectors. The key set is
// established by New and never changes afterwards.
type Set struct {
	keys   []string
	index  map[string]int
	values []*r3.Vec
}

var _ View = (*Set)(nil)

// New creates a set whose keys, in order, are the entry names. It panics on
// an empty or duplicate name.
func New(entries ...Entry) *Set {
	s := &Set{
		keys:   make([]string, 0, len(entries)),
		index:  make(map[string]int, len(entries)),
		values: make([]*r3.Vec, 0, len(entries)),
	}
	for _, e := range entries {
		if e.Name == "" {
			panic("params: empty parameter name")
		}
		if _, dup := s.index[e.Name]; dup {
			panic("params: duplicate parameter " + e.Name)
		}
		s.index[e.Name] = len(s.keys)
		s.keys = append(s.keys, e.Name)
		s.values = append(s.values, clone(e.Value))
	}
	return s
}

// Keys returns the key names in declared order.
func (s *Set) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Len returns the number of keys.
func (s *Set) Len() int {
	return len(s.keys)
}

// Has reports whether name is a key of the set.
func (s *Set) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Get returns a copy of the value stored under name, or nil if it is unset.
func (s *Set) Get(name string) (*r3.Vec, error) {
	i, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return clone(s.values[i]), nil
}

// MustGet is like Get but panics if name is not a key.
func (s *Set) MustGet(name string) *r3.Vec {
	v, err := s.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Set replaces the value stored under name. A nil value clears it.
func (s *Set) Set(name string, value *r3.Vec) error {
	i, err := s.lookup(name)
	if err != nil {
		return err
	}
	s.values[i] = clone(value)
	return nil
}

// UpdatePositional overwrites values in declared key order. It requires one
// value per key; nil values leave the existing value in place. It returns
// the names that were written.
func (s *Set) UpdatePositional(values ...*r3.Vec) ([]string, error) {
	if len(values) != len(s.keys) {
		return nil, fmt.Errorf("%w: got %d values for %d keys", ErrArityMismatch, len(values), len(s.keys))
	}

	var written []string
	for i, v := range values {
		if v == nil {
			continue
		}
		s.values[i] = clone(v)
		written = append(written, s.keys[i])
	}
	return written, nil
}

// UpdateKeyed applies each pair like Set, except that nil values are
// skipped. All names are checked before anything is written, so a call
// that fails leaves the set untouched. It returns the names that were
// written, in argument order.
func (s *Set) UpdateKeyed(pairs ...Entry) ([]string, error) {
	for _, p := range pairs {
		if _, err := s.lookup(p.Name); err != nil {
			return nil, err
		}
	}

	var written []string
	for _, p := range pairs {
		if p.Value == nil {
			continue
		}
		s.values[s.index[p.Name]] = clone(p.Value)
		written = append(written, p.Name)
	}
	return written, nil
}

func (s *Set) lookup(name string) (int, error) {
	i, ok := s.index[name]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownKey, name)
	}
	return i, nil
}

func clone(v *r3.Vec) *r3.Vec {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
