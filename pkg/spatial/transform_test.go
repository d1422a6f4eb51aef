package spatial

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-9

var approxVec = cmpopts.EquateApprox(0, tol)

func TestIdentityApply(t *testing.T) {
	p := r3.Vec{X: 1, Y: -2, Z: 3}

	assert.Empty(t, cmp.Diff(p, Identity().Apply(p), approxVec))
	assert.Empty(t, cmp.Diff(p, Transform{}.Apply(p), approxVec))
}

func TestTranslationApply(t *testing.T) {
	tr := Translation(r3.Vec{X: 1, Y: 2, Z: 3})
	got := tr.Apply(r3.Vec{X: 1})

	assert.Empty(t, cmp.Diff(r3.Vec{X: 2, Y: 2, Z: 3}, got, approxVec))
}

func TestYawRotatesForwardToLeft(t *testing.T) {
	got := Yaw(math.Pi / 2).Apply(AxisX)

	assert.Empty(t, cmp.Diff(AxisY, got, approxVec))
}

func TestPositivePitchPointsDown(t *testing.T) {
	got := Pitch(math.Pi / 2).Apply(AxisX)

	assert.Empty(t, cmp.Diff(r3.Vec{Z: -1}, got, approxVec))
}

func TestComposeAppliesRightFirst(t *testing.T) {
	a := Translation(r3.Vec{Z: 1})
	b := Yaw(math.Pi / 2).Mul(Translation(r3.Vec{X: 1}))

	got := Compose(a, b).Apply(r3.Vec{})
	want := a.Apply(b.Apply(r3.Vec{}))

	assert.Empty(t, cmp.Diff(want, got, approxVec))
	assert.Empty(t, cmp.Diff(r3.Vec{Y: 1, Z: 1}, got, approxVec))
}

func TestComposeIsAssociative(t *testing.T) {
	a := FromRPY(0.1, 0.2, 0.3).Mul(Translation(r3.Vec{X: 1}))
	b := FromRPY(-0.4, 0.5, 1.2).Mul(Translation(r3.Vec{Y: 2}))
	c := FromRPY(0.7, -0.3, -2.0).Mul(Translation(r3.Vec{Z: 3}))

	left := Compose(Compose(a, b), c)
	right := Compose(a, Compose(b, c))

	assert.True(t, left.ApproxEqual(right, tol))
}

func TestRPYRoundTrip(t *testing.T) {
	tests := []struct {
		name             string
		roll, pitch, yaw float64
	}{
		{"zero", 0, 0, 0},
		{"yaw only", 0, 0, 1.2},
		{"pitch only", 0, -0.7, 0},
		{"roll only", 0.4, 0, 0},
		{"mixed", 0.3, -0.5, 2.5},
		{"negative yaw", -0.2, 0.9, -2.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roll, pitch, yaw := FromRPY(tt.roll, tt.pitch, tt.yaw).RPY()
			assert.InDelta(t, tt.roll, roll, tol)
			assert.InDelta(t, tt.pitch, pitch, tol)
			assert.InDelta(t, tt.yaw, yaw, tol)
		})
	}
}

func TestInverse(t *testing.T) {
	tr := FromRPY(0.3, 0.2, -1.1).Mul(Translation(r3.Vec{X: 1, Y: 2, Z: 3}))

	assert.True(t, tr.Mul(tr.Inverse()).ApproxEqual(Identity(), tol))
	assert.True(t, tr.Inverse().Mul(tr).ApproxEqual(Identity(), tol))
}

func TestYawOnly(t *testing.T) {
	tr := FromRPY(0.4, 0.6, 1.0).Mul(Translation(r3.Vec{X: 5}))

	roll, pitch, yaw := tr.YawOnly().RPY()
	assert.InDelta(t, 0, roll, tol)
	assert.InDelta(t, 0, pitch, tol)
	assert.InDelta(t, 1.0, yaw, tol)
	assert.Equal(t, r3.Vec{}, tr.YawOnly().Origin)
}

func TestFromQuaternionNormalizes(t *testing.T) {
	// 90° about Z, scaled by 2.
	s := math.Sqrt2
	tr := FromQuaternion(s, 0, 0, s)

	assert.Empty(t, cmp.Diff(AxisY, tr.Apply(AxisX), approxVec))

	w, x, y, z := tr.Quaternion()
	assert.InDelta(t, 1, w*w+x*x+y*y+z*z, tol)
}

func TestL1Norm(t *testing.T) {
	assert.Equal(t, 6.0, L1Norm(r3.Vec{X: 1, Y: -2, Z: 3}))
	assert.Equal(t, 0.0, L1Norm(r3.Vec{}))
}
