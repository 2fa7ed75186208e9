package measurement

import "errors"

var (
	// ErrInvalidBounds indicates a lower bound above its upper bound, or a
	// non-finite bound. Fatal to the estimation call only.
	ErrInvalidBounds = errors.New("measurement: invalid search bounds")

	// ErrEmptyMeasurement indicates a procedure with no observations.
	ErrEmptyMeasurement = errors.New("measurement: no measured Stokes vectors")

	// ErrNumericalInstability indicates that the forward model produced a
	// non-finite value for the candidate the search returned.
	ErrNumericalInstability = errors.New("measurement: forward model produced non-finite output")
)
