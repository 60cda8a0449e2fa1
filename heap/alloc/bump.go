package alloc

import (
	"github.com/heaplab/gckit/internal/word"
	"github.com/heaplab/gckit/layout"
	"github.com/heaplab/gckit/pkg/types"
)

// Object allocates a plain instance of desc through ctx and returns its
// address. The descriptor id is written into the header word; payload
// bytes are left in region state (zero-filled by the heap, never by this
// path) and must be written before they are read.
func Object(ctx *Context, desc *layout.Descriptor) (types.Addr, error) {
	if desc.IsFree() {
		return types.Nil, ErrReservedLayout
	}
	if !desc.IsArray() && desc.BaseSize() == 0 {
		return types.Nil, ErrInvalidSize
	}
	return allocate(ctx, desc, desc.InstanceSize(), types.AllocDefault)
}

// Array allocates an array-like instance of desc with n elements. The
// element count is written into the second header word.
func Array(ctx *Context, desc *layout.Descriptor, n uint64) (types.Addr, error) {
	if desc.IsFree() {
		return types.Nil, ErrReservedLayout
	}
	if !desc.IsArray() || n > desc.MaxElements() {
		return types.Nil, ErrInvalidSize
	}
	addr, err := allocate(ctx, desc, desc.ArraySize(n), types.AllocDefault)
	if err != nil {
		return types.Nil, err
	}
	word.PutU64(ctx.backend.Bytes(), uint64(addr)+word.Size, n)
	return addr, nil
}

// LargeObject allocates a plain instance of desc straight through the
// backend's large-object path, bypassing the bump region regardless of
// size. Use for instances that should not churn the ephemeral space.
func LargeObject(ctx *Context, desc *layout.Descriptor) (types.Addr, error) {
	if desc.IsFree() {
		return types.Nil, ErrReservedLayout
	}
	if !desc.IsArray() && desc.BaseSize() == 0 {
		return types.Nil, ErrInvalidSize
	}
	return allocate(ctx, desc, desc.InstanceSize(), types.AllocLarge)
}

// LargeArray is LargeObject for array-like layouts.
func LargeArray(ctx *Context, desc *layout.Descriptor, n uint64) (types.Addr, error) {
	if desc.IsFree() {
		return types.Nil, ErrReservedLayout
	}
	if !desc.IsArray() || n > desc.MaxElements() {
		return types.Nil, ErrInvalidSize
	}
	addr, err := allocate(ctx, desc, desc.ArraySize(n), types.AllocLarge)
	if err != nil {
		return types.Nil, err
	}
	word.PutU64(ctx.backend.Bytes(), uint64(addr)+word.Size, n)
	return addr, nil
}

// allocate is the bump fast path. Sizes are rounded to word alignment;
// when the aligned request fits, the cursor advances and the old cursor is
// the new object's address. When it does not fit, the context is left
// untouched and the backend's slow path runs exactly once.
func allocate(ctx *Context, desc *layout.Descriptor, size uint64, flags types.AllocFlags) (types.Addr, error) {
	if size == 0 {
		return types.Nil, ErrInvalidSize
	}
	need := word.AlignUp(size)

	if flags&types.AllocLarge != 0 {
		addr, err := ctx.backend.SlowAllocate(ctx, need, flags)
		if err != nil {
			return types.Nil, err
		}
		word.PutU64(ctx.backend.Bytes(), uint64(addr), uint64(desc.ID()))
		return addr, nil
	}

	addr := ctx.cursor
	if end := addr + types.Addr(need); addr != types.Nil && end <= ctx.limit {
		ctx.cursor = end
	} else {
		var err error
		addr, err = ctx.backend.SlowAllocate(ctx, need, flags)
		if err != nil {
			return types.Nil, err
		}
	}

	// Header write after address acquisition; the object is not
	// scannable until its descriptor reference is in place.
	word.PutU64(ctx.backend.Bytes(), uint64(addr), uint64(desc.ID()))
	return addr, nil
}
