package replay

import "errors"

// Errors
var (
	ErrUnknownBook  = errors.New("unknown book kind")
	ErrInvalidBook  = errors.New("invalid book configuration")
	ErrConservation = errors.New("quantity not conserved")
	ErrNoActions    = errors.New("no actions to replay")
)
