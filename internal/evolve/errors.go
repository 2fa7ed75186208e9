package evolve

import "errors"

var (
	// ErrDimensionMismatch indicates lower and upper bounds of different length,
	// or an empty search space.
	ErrDimensionMismatch = errors.New("evolve: bound dimensions do not match")

	// ErrBadBounds indicates a lower bound above its upper bound or a non-finite bound.
	ErrBadBounds = errors.New("evolve: invalid bounds")

	// ErrBadSettings indicates settings that cannot drive a search.
	ErrBadSettings = errors.New("evolve: invalid settings")
)
