package knx

import "errors"

// Domain-specific errors for KNX address handling.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidGroupAddress is returned when a group address string
	// cannot be parsed or a part is out of range.
	ErrInvalidGroupAddress = errors.New("knx: invalid group address")
)
