package alloc

import "errors"

var (
	// ErrInvalidSize indicates a zero-size allocation request. Degenerate
	// zero-size objects are not supported.
	ErrInvalidSize = errors.New("alloc: zero-size allocation request")

	// ErrReservedLayout indicates an attempt to allocate an instance of
	// the free-space sentinel descriptor, which only the collector may
	// write.
	ErrReservedLayout = errors.New("alloc: layout is reserved for the collector")
)
