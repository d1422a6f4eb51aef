package kinematics

import (
	"fmt"
	"strings"
)

// ReferenceHeight is the body height, in meters, at which the reference
// proportions below were measured.
const ReferenceHeight = 1.835

// Reference proportions in meters for a person of ReferenceHeight.
const (
	refShoulderHeight  = 1.47
	refShoulderToNeck  = 0.20
	refShoulderToEyes  = 0.25
	refShoulderToWrist = 0.60
	refWristToFinger   = 0.20
)

// BodyProportions holds the body segment lengths, in meters, derived from a
// single body height.
type BodyProportions struct {
	ShoulderHeight  float64 `json:"shoulder_height"`
	ShoulderToNeck  float64 `json:"shoulder_to_neck"`
	ShoulderToEyes  float64 `json:"shoulder_to_eyes"`
	ShoulderToWrist float64 `json:"shoulder_to_wrist"`
	WristToFinger   float64 `json:"wrist_to_finger"`
}

// NewBodyProportions scales the reference proportions linearly to height.
func NewBodyProportions(height float64) BodyProportions {
	scale := height / ReferenceHeight
	return BodyProportions{
		ShoulderHeight:  refShoulderHeight * scale,
		ShoulderToNeck:  refShoulderToNeck * scale,
		ShoulderToEyes:  refShoulderToEyes * scale,
		ShoulderToWrist: refShoulderToWrist * scale,
		WristToFinger:   refWristToFinger * scale,
	}
}

// Handedness selects the arm used for pointing.
type Handedness int

const (
	// Ignore places the pointing shoulder on the body midline.
	Ignore Handedness = iota
	// LeftHand points with the left arm.
	LeftHand
	// RightHand points with the right arm.
	RightHand
)

// Sign returns the direction of the lateral neck-to-shoulder offset along
// the Y (left) axis: 0, +1 or -1.
func (h Handedness) Sign() float64 {
	switch h {
	case LeftHand:
		return 1
	case RightHand:
		return -1
	default:
		return 0
	}
}

func (h Handedness) String() string {
	switch h {
	case LeftHand:
		return "left"
	case RightHand:
		return "right"
	default:
		return "ignore"
	}
}

// ParseHandedness accepts "ignore", "left" or "right" (case-insensitive).
// An empty string means Ignore.
func ParseHandedness(s string) (Handedness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore", "none":
		return Ignore, nil
	case "left", "left_hand":
		return LeftHand, nil
	case "right", "right_hand":
		return RightHand, nil
	}
	return Ignore, fmt.Errorf("%w %q", ErrUnknownHandedness, s)
}

// MarshalText implements encoding.TextMarshaler.
func (h Handedness) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Handedness) UnmarshalText(text []byte) error {
	parsed, err := ParseHandedness(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
