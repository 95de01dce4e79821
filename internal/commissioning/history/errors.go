package history

import "errors"

var (
	// ErrRunNotFound is returned when no run exists with the requested ID.
	ErrRunNotFound = errors.New("import run not found")

	// ErrInvalidRun is returned when a run is missing required fields.
	ErrInvalidRun = errors.New("invalid import run")
)
