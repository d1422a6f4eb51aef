package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// L1Norm returns the sum of the absolute values of v's components.
func L1Norm(v r3.Vec) float64 {
	return math.Abs(v.X) + math.Abs(v.Y) + math.Abs(v.Z)
}

// VecApproxEqual reports whether a and b differ by at most tol in every
// component.
func VecApproxEqual(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol &&
		math.Abs(a.Y-b.Y) <= tol &&
		math.Abs(a.Z-b.Z) <= tol
}

// Vec returns a pointer to a copy of v, for optional vector arguments.
func Vec(x, y, z float64) *r3.Vec {
	return &r3.Vec{X: x, Y: y, Z: z}
}
