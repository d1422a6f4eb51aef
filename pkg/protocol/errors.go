package protocol

import "errors"

// ErrDegenerateQuaternion is returned for a transform whose quaternion
// fields are present but have zero length.
var ErrDegenerateQuaternion = errors.New("quaternion has zero length")
