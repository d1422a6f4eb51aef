// Package spatial provides the rigid transform type used by the pointing
// model: a rotation and a translation expressed in a parent frame.
//
// Vectors and rotations come from gonum's spatial/r3 package; rotations are
// unit quaternions.
package spatial

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Frame axes. X points forward, Y to the left and Z up.
var (
	AxisX = r3.Vec{X: 1}
	AxisY = r3.Vec{Y: 1}
	AxisZ = r3.Vec{Z: 1}
)

// Transform is a rigid-body transform. A zero Rotation is read as the
// identity rotation, so the zero Transform is the identity.
type Transform struct {
	Origin   r3.Vec
	Rotation r3.Rotation
}

// Identity returns the transform that maps every point to itself.
func Identity() Transform {
	return Transform{Rotation: r3.Rotation{Real: 1}}
}

// New builds a transform from an origin and a rotation.
func New(origin r3.Vec, rotation r3.Rotation) Transform {
	return Transform{Origin: origin, Rotation: rotation}
}

// Translation returns a pure translation by v.
func Translation(v r3.Vec) Transform {
	return Transform{Origin: v, Rotation: r3.Rotation{Real: 1}}
}

// FromRotation returns a pure rotation.
func FromRotation(r r3.Rotation) Transform {
	return Transform{Rotation: r}
}

// Yaw returns a rotation of angle radians about the Z axis.
func Yaw(angle float64) Transform {
	return FromRotation(r3.NewRotation(angle, AxisZ))
}

// Pitch returns a rotation of angle radians about the Y axis.
func Pitch(angle float64) Transform {
	return FromRotation(r3.NewRotation(angle, AxisY))
}

// Roll returns a rotation of angle radians about the X axis.
func Roll(angle float64) Transform {
	return FromRotation(r3.NewRotation(angle, AxisX))
}

// FromRPY builds a rotation from ZYX Euler angles: yaw about Z, then pitch
// about the new Y, then roll about the new X.
func FromRPY(roll, pitch, yaw float64) Transform {
	return Yaw(yaw).Mul(Pitch(pitch)).Mul(Roll(roll))
}

// Compose returns a∘b: b is applied first, then a. Chaining parent to child
// transforms left to right gives the child frame in the root frame.
func Compose(a, b Transform) Transform {
	return a.Mul(b)
}

// Mul returns t∘o.
func (t Transform) Mul(o Transform) Transform {
	return Transform{
		Origin:   r3.Add(t.Origin, t.rotate(o.Origin)),
		Rotation: r3.Rotation(quat.Mul(t.quat(), o.quat())),
	}
}

// Apply maps p from the transform's child frame into its parent frame.
func (t Transform) Apply(p r3.Vec) r3.Vec {
	return r3.Add(t.rotate(p), t.Origin)
}

// Inverse returns the transform that undoes t.
func (t Transform) Inverse() Transform {
	inv := r3.Rotation(quat.Conj(t.quat()))
	return Transform{
		Origin:   r3.Scale(-1, inv.Rotate(t.Origin)),
		Rotation: inv,
	}
}

// RotationOnly drops the translation.
func (t Transform) RotationOnly() Transform {
	return FromRotation(t.Rotation)
}

// YawOnly keeps only the yaw component of the rotation and drops the
// translation.
func (t Transform) YawOnly() Transform {
	_, _, yaw := t.RPY()
	return Yaw(yaw)
}

// RPY decomposes the rotation into ZYX Euler angles (roll, pitch, yaw) in
// radians. Pitch is clamped to ±π/2 at the gimbal-lock singularity.
func (t Transform) RPY() (roll, pitch, yaw float64) {
	q := normalize(t.quat())
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	sp := 2 * (w*y - z*x)
	switch {
	case sp >= 1:
		pitch = math.Pi / 2
	case sp <= -1:
		pitch = -math.Pi / 2
	default:
		pitch = math.Asin(sp)
	}

	yaw = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	return roll, pitch, yaw
}

// ApproxEqual reports whether both origins and rotated unit axes of t and o
// agree within tol.
func (t Transform) ApproxEqual(o Transform, tol float64) bool {
	if !VecApproxEqual(t.Origin, o.Origin, tol) {
		return false
	}
	for _, axis := range []r3.Vec{AxisX, AxisY, AxisZ} {
		if !VecApproxEqual(t.rotate(axis), o.rotate(axis), tol) {
			return false
		}
	}
	return true
}

func (t Transform) quat() quat.Number {
	if t.Rotation == (r3.Rotation{}) {
		return quat.Number{Real: 1}
	}
	return quat.Number(t.Rotation)
}

func (t Transform) rotate(p r3.Vec) r3.Vec {
	return r3.Rotation(t.quat()).Rotate(p)
}

func normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

// FromQuaternion returns a pure rotation from the quaternion w + xi + yj + zk.
// The quaternion is normalized; a zero quaternion yields the identity.
func FromQuaternion(w, x, y, z float64) Transform {
	return FromRotation(r3.Rotation(normalize(quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z})))
}

// Quaternion returns the rotation as a unit quaternion (w, x, y, z).
func (t Transform) Quaternion() (w, x, y, z float64) {
	q := normalize(t.quat())
	return q.Real, q.Imag, q.Jmag, q.Kmag
}
