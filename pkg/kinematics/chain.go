package kinematics

import (
	"github.com/teslashibe/go-pointer/pkg/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// Chain is the set of parent-to-child transforms from the footprint of the
// person to the tip of the pointing finger.
type Chain struct {
	FootprintToNeck spatial.Transform
	NeckToEyes      spatial.Transform
	NeckToShoulder  spatial.Transform
	ShoulderToWrist spatial.Transform
	WristToFinger   spatial.Transform
}

// NewChain builds the chain for the given proportions and handedness. Only
// the rotation of imu is used; it orients the pointing arm at the shoulder.
func NewChain(bp BodyProportions, h Handedness, imu spatial.Transform) Chain {
	neckToShoulder := imu.RotationOnly()
	neckToShoulder.Origin = r3.Vec{Y: h.Sign() * bp.ShoulderToNeck}

	return Chain{
		FootprintToNeck: spatial.Translation(r3.Vec{Z: bp.ShoulderHeight}),
		NeckToEyes:      spatial.Translation(r3.Vec{Z: bp.ShoulderToEyes}),
		NeckToShoulder:  neckToShoulder,
		ShoulderToWrist: spatial.Translation(r3.Vec{X: bp.ShoulderToWrist}),
		WristToFinger:   spatial.Translation(r3.Vec{X: bp.WristToFinger}),
	}
}

// Finger returns the fingertip pose in the footprint frame.
func (c Chain) Finger() spatial.Transform {
	return c.FootprintToNeck.
		Mul(c.NeckToShoulder).
		Mul(c.ShoulderToWrist).
		Mul(c.WristToFinger)
}

// Eyes returns the eye pose in the footprint frame.
func (c Chain) Eyes() spatial.Transform {
	return c.FootprintToNeck.Mul(c.NeckToEyes)
}
