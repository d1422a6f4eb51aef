package kinematics

import "errors"

var (
	// ErrInvalidBodyHeight is returned for a body height that is not a
	// positive finite number.
	ErrInvalidBodyHeight = errors.New("body height must be positive")

	// ErrUnknownHandedness is returned when parsing an unrecognised
	// handedness name.
	ErrUnknownHandedness = errors.New("unknown handedness")

	// ErrNilSurface is returned when a model is built without a target
	// surface.
	ErrNilSurface = errors.New("model requires a surface")
)
