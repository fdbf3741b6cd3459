package core

import "errors"

var (
	// ErrEmptyText indicates a submission whose canonical form is empty.
	ErrEmptyText = errors.New("text is empty after normalization")
)
