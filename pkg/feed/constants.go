package feed

import "errors"

// Errors
var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrInvalidTickSize = errors.New("invalid tick size")
	ErrOffTick         = errors.New("price is not a multiple of the tick size")
	ErrPriceRange      = errors.New("price out of range")
)
