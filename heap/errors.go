package heap

import "errors"

var (
	// ErrOutOfMemory indicates the slow path exhausted every strategy:
	// region carving, collection, and growth toward the reserve limit.
	// The caller decides between aborting and retrying with backoff.
	ErrOutOfMemory = errors.New("heap: out of memory")

	// ErrNoCollector indicates a collection was requested before a
	// collector was registered.
	ErrNoCollector = errors.New("heap: no collector registered")

	// ErrBadConfig indicates the configured space sizes cannot fit the
	// reserved range.
	ErrBadConfig = errors.New("heap: invalid configuration")
)
