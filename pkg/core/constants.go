package core

import "errors"

// Errors
var (
	ErrInvalidSide = errors.New("invalid side")
)
