// Package kinematics derives a pointing ray from a person's body
// proportions, pointing arm and IMU orientation, and intersects it with a
// target surface.
//
// A Model recomputes the whole chain on every input change. It is not safe
// for concurrent use; callers that share a model across goroutines must
// serialise access themselves.
package kinematics

import (
	"fmt"
	"math"

	"github.com/teslashibe/go-pointer/internal/log"
	"github.com/teslashibe/go-pointer/pkg/spatial"
	"github.com/teslashibe/go-pointer/pkg/surface"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose is a snapshot of a model's outputs. Pointer is nil when the ray does
// not hit the surface.
type Pose struct {
	Ray     spatial.Transform
	Finger  spatial.Transform
	Eyes    spatial.Transform
	Pointer *spatial.Transform
}

// Model is the kinematic pointing model of one person.
type Model struct {
	bodyHeight float64
	handedness Handedness
	surface    surface.Surface

	world spatial.Transform
	imu   spatial.Transform

	proportions BodyProportions
	chain       Chain

	eyes       spatial.Transform
	finger     spatial.Transform
	ray        spatial.Transform
	pointer    spatial.Transform
	hasPointer bool

	onUpdate []func(Pose)
}

var _ surface.Observer = (*Model)(nil)

// New creates a model for a person of bodyHeight meters pointing at surf,
// attaches itself to surf and computes the initial outputs with identity
// world and IMU transforms.
func New(bodyHeight float64, surf surface.Surface, handedness Handedness) (*Model, error) {
	if !(bodyHeight > 0) || math.IsInf(bodyHeight, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBodyHeight, bodyHeight)
	}
	if surf == nil {
		return nil, ErrNilSurface
	}

	m := &Model{
		bodyHeight: bodyHeight,
		handedness: handedness,
		surface:    surf,
		world:      spatial.Identity(),
		imu:        spatial.Identity(),
	}
	if err := surf.Attach(m); err != nil {
		return nil, err
	}

	m.update()
	return m, nil
}

// SetWorldTransform places the person's footprint in the world frame.
func (m *Model) SetWorldTransform(t spatial.Transform) {
	m.world = t
	m.update()
}

// SetImuTransform sets the orientation of the pointing arm. Only its
// rotation is used.
func (m *Model) SetImuTransform(t spatial.Transform) {
	m.imu = t
	m.update()
}

// SetHandedness changes the pointing arm.
func (m *Model) SetHandedness(h Handedness) {
	m.handedness = h
	m.update()
}

// ParameterChanged is called by the surface when one of its parameters
// changes.
func (m *Model) ParameterChanged(name string, value r3.Vec) {
	log.Debug("surface parameter changed", "surface", m.surface.Kind(), "param", name, "value", value)
	m.update()
}

// OnUpdate registers fn to be called, synchronously, after every
// recomputation.
func (m *Model) OnUpdate(fn func(Pose)) {
	m.onUpdate = append(m.onUpdate, fn)
}

// Ray returns the pointing ray: origin at the eyes, X axis along the
// eye-to-finger direction.
func (m *Model) Ray() (spatial.Transform, bool) {
	return m.ray, true
}

// Pointer returns the pose where the ray hits the surface, or false when it
// misses.
func (m *Model) Pointer() (spatial.Transform, bool) {
	return m.pointer, m.hasPointer
}

// Finger returns the fingertip pose in the world frame.
func (m *Model) Finger() (spatial.Transform, bool) {
	return m.finger, true
}

// Eyes returns the eye pose in the world frame.
func (m *Model) Eyes() spatial.Transform { return m.eyes }

// Snapshot returns all outputs at once.
func (m *Model) Snapshot() Pose {
	p := Pose{
		Ray:    m.ray,
		Finger: m.finger,
		Eyes:   m.eyes,
	}
	if m.hasPointer {
		ptr := m.pointer
		p.Pointer = &ptr
	}
	return p
}

// BodyHeight returns the body height in meters.
func (m *Model) BodyHeight() float64 { return m.bodyHeight }

// Proportions returns the body proportions derived from the body height.
func (m *Model) Proportions() BodyProportions { return m.proportions }

// Chain returns the current kinematic chain.
func (m *Model) Chain() Chain { return m.chain }

// Handedness returns the pointing arm.
func (m *Model) Handedness() Handedness { return m.handedness }

// Surface returns the target surface.
func (m *Model) Surface() surface.Surface { return m.surface }

// WorldTransform returns the last world transform set.
func (m *Model) WorldTransform() spatial.Transform { return m.world }

// ImuTransform returns the last IMU transform set.
func (m *Model) ImuTransform() spatial.Transform { return m.imu }

// update rederives every output from the current inputs.
func (m *Model) update() {
	m.proportions = NewBodyProportions(m.bodyHeight)
	m.chain = NewChain(m.proportions, m.handedness, m.imu)

	m.finger = m.world.Mul(m.chain.Finger())
	m.eyes = m.world.Mul(m.chain.Eyes())
	m.ray = pointingRay(m.eyes.Origin, m.finger.Origin)

	pointer, ok := m.surface.Intersect(m.ray)
	if ok != m.hasPointer {
		if ok {
			log.Debug("pointer acquired", "surface", m.surface.Kind(), "x", pointer.Origin.X, "y", pointer.Origin.Y, "z", pointer.Origin.Z)
		} else {
			log.Debug("pointer lost", "surface", m.surface.Kind())
		}
	}
	m.pointer, m.hasPointer = pointer, ok

	if len(m.onUpdate) > 0 {
		pose := m.Snapshot()
		for _, fn := range m.onUpdate {
			fn(pose)
		}
	}
}

// pointingRay returns the transform at eyes whose X axis points at finger,
// built from a yaw followed by a pitch so it carries no roll.
func pointingRay(eyes, finger r3.Vec) spatial.Transform {
	dir := r3.Unit(r3.Sub(finger, eyes))

	yaw := spatial.Yaw(math.Atan2(dir.Y, dir.X))
	forward := yaw.Apply(spatial.AxisX)
	pitch := math.Atan2(-dir.Z, r3.Dot(dir, forward))

	ray := yaw.Mul(spatial.Pitch(pitch))
	ray.Origin = eyes
	return ray
}
