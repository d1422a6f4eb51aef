package surface

import (
	"github.com/teslashibe/go-pointer/pkg/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// Sphere is centred on the ray origin; Point only fixes its radius, which is
// the L1 norm of Point.
type Sphere struct {
	base
}

// NewSphere creates a sphere whose radius is the L1 norm of point.
func NewSphere(point r3.Vec) *Sphere {
	s := &Sphere{base: newBase(KeyPoint)}
	s.init(KeyPoint, point)
	return s
}

// Kind returns KindSphere.
func (s *Sphere) Kind() Kind { return KindSphere }

// Point returns the reference point.
func (s *Sphere) Point() r3.Vec { return s.vec(KeyPoint) }

// SetPoint moves the reference point, changing the radius.
func (s *Sphere) SetPoint(v r3.Vec) error { return s.SetParameter(KeyPoint, v) }

// Radius returns the L1 norm of the reference point.
func (s *Sphere) Radius() float64 { return spatial.L1Norm(s.Point()) }

// Intersect returns the point one radius ahead of the ray origin along the
// ray, oriented with the ray's yaw. Every ray hits.
func (s *Sphere) Intersect(ray spatial.Transform) (spatial.Transform, bool) {
	r := spatial.L1Norm(s.require(KeyPoint))

	pose := ray.YawOnly()
	pose.Origin = ray.Apply(r3.Vec{X: r})
	return pose, true
}
