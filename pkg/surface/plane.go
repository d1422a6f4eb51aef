package surface

import (
	"math"

	"github.com/teslashibe/go-pointer/pkg/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// Plane is an infinite plane through Point with normal Normal.
type Plane struct {
	base
	horizontal bool
}

// NewPlane creates a plane from its normal and a point on it.
func NewPlane(normal, point r3.Vec) *Plane {
	p := &Plane{base: newBase(KeyNormal, KeyPoint)}
	p.init(KeyNormal, normal)
	p.init(KeyPoint, point)
	return p
}

// NewHorizontalPlane creates a plane with normal (0,0,1) through point. The
// normal cannot be changed afterwards.
func NewHorizontalPlane(point r3.Vec) *Plane {
	p := NewPlane(spatial.AxisZ, point)
	p.horizontal = true
	p.locked = map[string]bool{KeyNormal: true}
	return p
}

// Kind reports KindHorizontalPlane for planes built by NewHorizontalPlane.
func (p *Plane) Kind() Kind {
	if p.horizontal {
		return KindHorizontalPlane
	}
	return KindPlane
}

// Normal returns the plane normal.
func (p *Plane) Normal() r3.Vec { return p.vec(KeyNormal) }

// Point returns the reference point.
func (p *Plane) Point() r3.Vec { return p.vec(KeyPoint) }

// SetNormal changes the normal. It fails on a horizontal plane.
func (p *Plane) SetNormal(v r3.Vec) error { return p.SetParameter(KeyNormal, v) }

// SetPoint moves the reference point.
func (p *Plane) SetPoint(v r3.Vec) error { return p.SetParameter(KeyPoint, v) }

// Intersect solves for the point where the ray crosses the plane. Rays
// parallel to the plane, and planes behind the ray, give no result. The
// returned orientation is a pure yaw facing the hit point from the frame
// origin.
func (p *Plane) Intersect(ray spatial.Transform) (spatial.Transform, bool) {
	n := p.require(KeyNormal)
	pt := p.require(KeyPoint)

	u := backward(ray)
	w := r3.Sub(ray.Origin, pt)
	d := r3.Dot(n, u)
	num := -r3.Dot(n, w)

	if math.Abs(d) < epsilon {
		return spatial.Transform{}, false
	}

	s := num / d
	if s >= 0 {
		return spatial.Transform{}, false
	}

	hit := r3.Add(ray.Origin, r3.Scale(s, u))
	pose := spatial.Yaw(math.Atan2(hit.Y, hit.X))
	pose.Origin = hit
	return pose, true
}
