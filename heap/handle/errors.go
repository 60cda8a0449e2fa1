package handle

import "errors"

var (
	// ErrTableExhausted indicates the slot table reached its configured
	// limit and cannot grow.
	ErrTableExhausted = errors.New("handle: table exhausted")

	// ErrBadHandle indicates a handle that is out of range or already
	// destroyed.
	ErrBadHandle = errors.New("handle: invalid handle")

	// ErrBadKind indicates an unrecognized handle kind.
	ErrBadKind = errors.New("handle: invalid kind")
)
