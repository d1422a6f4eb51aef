package params

import "errors"

var (
	// ErrUnknownKey is returned when a name is not part of the set's keys.
	ErrUnknownKey = errors.New("unknown parameter")

	// ErrArityMismatch is returned when a positional update does not supply
	// exactly one value per key.
	ErrArityMismatch = errors.New("parameter count mismatch")
)
