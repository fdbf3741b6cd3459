package match

import "errors"

var (
	// ErrInvalidThreshold is returned when a threshold lies outside [0, 1].
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")
)
