package heatpump

import "errors"

var (
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrInvalidFeature    = errors.New("invalid feature")
	ErrInvalidRating     = errors.New("invalid rating")
	ErrOutOfRange        = errors.New("value out of range")
	ErrNotFinite         = errors.New("value must be finite")
	ErrInvalidSweepRange = errors.New("sweep range must have at least one point and finite bounds")
	ErrSweepTooLarge     = errors.New("too many sweep points")
)
