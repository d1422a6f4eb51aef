package protocol

import (
	"time"

	"github.com/teslashibe/go-pointer/pkg/kinematics"
	"github.com/teslashibe/go-pointer/pkg/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// =============================================================================
// Conversions
// =============================================================================

// FromTransform converts a transform to its wire form.
func FromTransform(t spatial.Transform) TransformData {
	roll, pitch, yaw := t.RPY()
	return TransformData{
		X:     t.Origin.X,
		Y:     t.Origin.Y,
		Z:     t.Origin.Z,
		Roll:  roll,
		Pitch: pitch,
		Yaw:   yaw,
	}
}

// Transform converts the wire form back to a transform.
func (d TransformData) Transform() spatial.Transform {
	var rot spatial.Transform
	if d.HasQuaternion() {
		rot = spatial.FromQuaternion(*d.QW, deref(d.QX), deref(d.QY), deref(d.QZ))
	} else {
		rot = spatial.FromRPY(d.Roll, d.Pitch, d.Yaw)
	}
	rot.Origin = r3.Vec{X: d.X, Y: d.Y, Z: d.Z}
	return rot
}

// Validate rejects a quaternion that cannot describe a rotation.
func (d TransformData) Validate() error {
	if !d.HasQuaternion() {
		return nil
	}
	w, x, y, z := *d.QW, deref(d.QX), deref(d.QY), deref(d.QZ)
	if w*w+x*x+y*y+z*z == 0 {
		return ErrDegenerateQuaternion
	}
	return nil
}

// HasQuaternion reports whether the sender supplied a quaternion.
func (d TransformData) HasQuaternion() bool {
	return d.QW != nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// FromPose converts a model snapshot to its wire form.
func FromPose(session string, p kinematics.Pose) PoseData {
	d := PoseData{
		Session: session,
		Ray:     FromTransform(p.Ray),
		Finger:  FromTransform(p.Finger),
		Eyes:    FromTransform(p.Eyes),
	}
	if p.Pointer != nil {
		ptr := FromTransform(*p.Pointer)
		d.Pointer = &ptr
	}
	return d
}

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewTransformMessage creates an imu or world message carrying t
func NewTransformMessage(msgType MessageType, t spatial.Transform) (*Message, error) {
	return NewMessage(msgType, FromTransform(t))
}

// NewHandednessMessage creates a handedness change message
func NewHandednessMessage(h kinematics.Handedness) (*Message, error) {
	return NewMessage(TypeHandedness, HandednessData{Handedness: h.String()})
}

// NewPoseMessage creates a pose message for a session
func NewPoseMessage(session string, p kinematics.Pose) (*Message, error) {
	return NewMessage(TypePose, FromPose(session, p))
}

// NewErrorMessage creates an error report
func NewErrorMessage(err error) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Error: err.Error()})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id, Timestamp: time.Now().UnixMilli()})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetTransformData extracts transform data from an imu or world message
func (m *Message) GetTransformData() (*TransformData, error) {
	var data TransformData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetHandednessData extracts handedness data from a message
func (m *Message) GetHandednessData() (*HandednessData, error) {
	var data HandednessData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPoseData extracts pose data from a message
func (m *Message) GetPoseData() (*PoseData, error) {
	var data PoseData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error data from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
