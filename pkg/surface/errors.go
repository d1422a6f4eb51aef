package surface

import "errors"

var (
	// ErrParameterUnset is raised when a parameter required for an
	// intersection has no value.
	ErrParameterUnset = errors.New("surface parameter not set")

	// ErrLockedParameter is returned when writing a parameter that the
	// surface fixes at construction, such as a horizontal plane's normal.
	ErrLockedParameter = errors.New("surface parameter is locked")

	// ErrAlreadyAttached is returned when a surface already reports to a
	// different observer.
	ErrAlreadyAttached = errors.New("surface already attached to a model")

	// ErrUnknownKind is returned for an unrecognised surface kind.
	ErrUnknownKind = errors.New("unknown surface kind")
)
