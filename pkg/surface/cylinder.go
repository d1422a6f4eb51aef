package surface

import (
	"math"

	"github.com/teslashibe/go-pointer/pkg/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// Cylinder is an infinite cylinder around Axis whose radius is the distance
// of Point from the axis. Distances use the L1 norm, and the hit point
// assumes a vertical axis through the ray origin.
type Cylinder struct {
	base
}

// NewCylinder creates a cylinder from a unit axis and a reference point.
func NewCylinder(axis, point r3.Vec) *Cylinder {
	c := &Cylinder{base: newBase(KeyAxis, KeyPoint)}
	c.init(KeyAxis, axis)
	c.init(KeyPoint, point)
	return c
}

// Kind returns KindCylinder.
func (c *Cylinder) Kind() Kind { return KindCylinder }

// Axis returns the cylinder axis.
func (c *Cylinder) Axis() r3.Vec { return c.vec(KeyAxis) }

// Point returns the reference point.
func (c *Cylinder) Point() r3.Vec { return c.vec(KeyPoint) }

// SetAxis changes the axis.
func (c *Cylinder) SetAxis(v r3.Vec) error { return c.SetParameter(KeyAxis, v) }

// SetPoint moves the reference point.
func (c *Cylinder) SetPoint(v r3.Vec) error { return c.SetParameter(KeyPoint, v) }

// Radius returns the L1 offset of the reference point from the axis.
func (c *Cylinder) Radius() float64 {
	return cylinderRadius(c.Axis(), c.Point())
}

// Intersect projects the ray onto the cylinder wall. Rays parallel to the
// axis give no result. The returned orientation is the ray's yaw.
func (c *Cylinder) Intersect(ray spatial.Transform) (spatial.Transform, bool) {
	a := c.require(KeyAxis)
	pt := c.require(KeyPoint)

	u := backward(ray)
	if spatial.L1Norm(r3.Cross(a, u)) < epsilon {
		return spatial.Transform{}, false
	}

	r := cylinderRadius(a, pt)
	_, pitch, yaw := ray.RPY()

	offset := r3.Vec{
		X: r * math.Cos(yaw),
		Y: r * math.Sin(yaw),
		Z: -r * math.Tan(pitch),
	}
	pose := spatial.Yaw(yaw)
	pose.Origin = r3.Add(ray.Origin, offset)
	return pose, true
}

func cylinderRadius(axis, point r3.Vec) float64 {
	return spatial.L1Norm(r3.Sub(point, r3.Scale(r3.Dot(point, axis), axis)))
}
