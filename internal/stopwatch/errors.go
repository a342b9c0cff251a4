package stopwatch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned by the registry when an identifier is
	// empty or already taken.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateID narrows ErrInvalidArgument to an identifier that is
	// already registered.
	ErrDuplicateID = fmt.Errorf("%w: stopwatch id already registered", ErrInvalidArgument)

	// ErrIllegalState is returned when an operation is not allowed in the
	// stopwatch's current state.
	ErrIllegalState = errors.New("illegal state")

	// ErrNotFound is returned by Registry.Get for unknown identifiers.
	ErrNotFound = errors.New("stopwatch not found")
)
