package collect

import "errors"

var (
	// ErrBadGeneration indicates a collection request for a generation
	// the collector does not implement.
	ErrBadGeneration = errors.New("collect: invalid generation")

	// ErrHeapCorrupt indicates the heap walk met bytes that do not parse
	// as an object, such as a reference into stamped free space.
	ErrHeapCorrupt = errors.New("collect: heap corrupt")
)
