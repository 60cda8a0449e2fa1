package layout

import "errors"

var (
	// ErrInvalidLayout indicates a malformed descriptor request: a
	// reference offset out of range, misaligned, or not strictly
	// increasing. Detected at registration and fatal to the caller.
	ErrInvalidLayout = errors.New("layout: invalid layout")

	// ErrUnknownID indicates a descriptor id that was never registered.
	ErrUnknownID = errors.New("layout: unknown descriptor id")
)
