// Package surface implements the target surfaces a pointing ray is
// intersected with: planes, horizontal planes, cylinders and spheres.
//
// Each surface keeps its geometry in a params.Set and reports parameter
// changes to the single Observer it is attached to, normally the
// kinematic model that owns it.
package surface

import (
	"fmt"
	"maps"
	"slices"

	"github.com/teslashibe/go-pointer/pkg/params"
	"github.com/teslashibe/go-pointer/pkg/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// Parameter names.
const (
	KeyNormal = "normal"
	KeyPoint  = "point"
	KeyAxis   = "axis"
)

// epsilon is the float64 machine epsilon.
const epsilon = 2.220446049250313e-16

// Kind identifies a surface variant.
type Kind string

const (
	KindPlane           Kind = "plane"
	KindHorizontalPlane Kind = "horizontal_plane"
	KindCylinder        Kind = "cylinder"
	KindSphere          Kind = "sphere"
)

// ParseKind converts a configuration string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPlane, KindHorizontalPlane, KindCylinder, KindSphere:
		return k, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownKind, s)
}

// Observer receives parameter changes from the surface it is attached to.
type Observer interface {
	ParameterChanged(name string, value r3.Vec)
}

// Surface is a target the pointing ray can hit. The set of implementations
// is closed: Plane (also used for horizontal planes), Cylinder and Sphere.
type Surface interface {
	Kind() Kind

	// Parameters gives read access to the surface geometry.
	Parameters() params.View

	// SetParameter writes one parameter and notifies the observer.
	SetParameter(name string, value r3.Vec) error

	// UpdateParameters writes values in declared key order; nil entries are
	// left unchanged. Each written key is notified.
	UpdateParameters(values ...*r3.Vec) error

	// UpdateParametersKeyed writes the non-nil pairs and notifies each.
	UpdateParametersKeyed(pairs ...params.Entry) error

	// Intersect returns the pose hit by ray, or false when the ray has no
	// forward intersection. It does not modify the surface.
	Intersect(ray spatial.Transform) (spatial.Transform, bool)

	// Attach registers the observer that receives parameter changes.
	Attach(o Observer) error

	sealed()
}

// New builds a surface of the given kind from named parameter values.
func New(kind Kind, values map[string]r3.Vec) (Surface, error) {
	var s Surface
	switch kind {
	case KindPlane:
		s = &Plane{base: newBase(KeyNormal, KeyPoint)}
	case KindHorizontalPlane:
		if _, ok := values[KeyNormal]; ok {
			return nil, fmt.Errorf("%w %q", ErrLockedParameter, KeyNormal)
		}
		s = NewHorizontalPlane(r3.Vec{})
	case KindCylinder:
		s = &Cylinder{base: newBase(KeyAxis, KeyPoint)}
	case KindSphere:
		s = &Sphere{base: newBase(KeyPoint)}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}

	pairs := make([]params.Entry, 0, len(values))
	for _, name := range slices.Sorted(maps.Keys(values)) {
		v := values[name]
		pairs = append(pairs, params.Entry{Name: name, Value: &v})
	}
	if err := s.UpdateParametersKeyed(pairs...); err != nil {
		return nil, err
	}

	view := s.Parameters()
	for _, name := range view.Keys() {
		if v, _ := view.Get(name); v == nil {
			return nil, fmt.Errorf("%s: %w %q", kind, ErrParameterUnset, name)
		}
	}
	return s, nil
}

// base carries the parameter storage and observer wiring shared by every
// variant.
type base struct {
	params   *params.Set
	observer Observer
	locked   map[string]bool
}

func newBase(keys ...string) base {
	entries := make([]params.Entry, len(keys))
	for i, k := range keys {
		entries[i] = params.Entry{Name: k}
	}
	return base{params: params.New(entries...)}
}

func (b *base) sealed() {}

// Parameters returns a read-only view of the surface parameters.
func (b *base) Parameters() params.View {
	return readOnly{set: b.params}
}

// readOnly hides the writable set behind params.View so writes must go
// through the surface.
type readOnly struct {
	set *params.Set
}

func (r readOnly) Keys() []string { return r.set.Keys() }
func (r readOnly) Len() int { return r.set.Len() }
func (r readOnly) Has(name string) bool { return r.set.Has(name) }
func (r readOnly) Get(name string) (*r3.Vec, error) { return r.set.Get(name) }

// Attach registers o as the only observer of this surface.
func (b *base) Attach(o Observer) error {
	if b.observer != nil && b.observer != o {
		return ErrAlreadyAttached
	}
	b.observer = o
	return nil
}

// SetParameter writes name and notifies the observer.
func (b *base) SetParameter(name string, value r3.Vec) error {
	if err := b.checkLocked(name); err != nil {
		return err
	}
	if err := b.params.Set(name, &value); err != nil {
		return err
	}
	b.notify(name)
	return nil
}

// UpdateParameters writes values positionally and notifies each written key.
func (b *base) UpdateParameters(values ...*r3.Vec) error {
	keys := b.params.Keys()
	for i, v := range values {
		if v != nil && i < len(keys) {
			if err := b.checkLocked(keys[i]); err != nil {
				return err
			}
		}
	}
	written, err := b.params.UpdatePositional(values...)
	if err != nil {
		return err
	}
	b.notify(written...)
	return nil
}

// UpdateParametersKeyed writes the non-nil pairs and notifies each.
func (b *base) UpdateParametersKeyed(pairs ...params.Entry) error {
	for _, p := range pairs {
		if p.Value == nil {
			continue
		}
		if err := b.checkLocked(p.Name); err != nil {
			return err
		}
	}
	written, err := b.params.UpdateKeyed(pairs...)
	if err != nil {
		return err
	}
	b.notify(written...)
	return nil
}

func (b *base) checkLocked(name string) error {
	if b.locked[name] {
		return fmt.Errorf("%w %q", ErrLockedParameter, name)
	}
	return nil
}

func (b *base) notify(names ...string) {
	if b.observer == nil {
		return
	}
	for _, name := range names {
		b.observer.ParameterChanged(name, *b.params.MustGet(name))
	}
}

// init stores a constructor argument. name is one of the variant's own
// keys, so the write cannot fail.
func (b *base) init(name string, v r3.Vec) {
	if err := b.params.Set(name, &v); err != nil {
		panic(err)
	}
}

// vec returns the current value of name; the name must be one of the
// variant's own keys.
func (b *base) vec(name string) r3.Vec {
	v := b.params.MustGet(name)
	if v == nil {
		return r3.Vec{}
	}
	return *v
}

// require returns the value of name and panics if it is unset.
func (b *base) require(name string) r3.Vec {
	v := b.params.MustGet(name)
	if v == nil {
		panic(fmt.Errorf("%w %q", ErrParameterUnset, name))
	}
	return *v
}

// backward returns the vector from one unit ahead of the ray back to its
// origin.
func backward(ray spatial.Transform) r3.Vec {
	return r3.Sub(ray.Origin, ray.Apply(spatial.AxisX))
}
