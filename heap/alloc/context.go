package alloc

import "github.com/heaplab/gckit/pkg/types"

// Backend is the slow-path owner a Context falls back to when its bump
// region is exhausted. *heap.Heap is the production implementation.
type Backend interface {
	// SlowAllocate services an allocation the bump region could not.
	// It may repopulate ctx with a fresh region, place the object
	// directly outside the ephemeral range, or trigger a collection
	// before retrying; it may block indefinitely. Returns the address
	// for this allocation, or an error once every strategy is
	// exhausted.
	SlowAllocate(ctx *Context, size uint64, flags types.AllocFlags) (types.Addr, error)

	// Bytes exposes the backing mapping for header writes.
	Bytes() []byte
}

// Context is a per-thread bump region: the cursor of the next free byte
// and the limit one past the last usable byte. A Context is owned
// exclusively by its thread; no other thread may touch it.
//
// Invariant: cursor <= limit. A zero Context (cursor == limit == 0) is
// valid and simply sends the first allocation down the slow path.
type Context struct {
	backend Backend
	cursor  types.Addr
	limit   types.Addr
}

// NewContext creates an empty context backed by b. The first allocation
// through it takes the slow path, which supplies the initial region.
func NewContext(b Backend) *Context {
	return &Context{backend: b}
}

// Cursor returns the address of the next free byte.
func (c *Context) Cursor() types.Addr { return c.cursor }

// Limit returns the address one past the last usable byte.
func (c *Context) Limit() types.Addr { return c.limit }

// Remaining returns the unallocated byte count of the current region.
func (c *Context) Remaining() uint64 { return uint64(c.limit - c.cursor) }

// SetRegion repopulates the context with the bump region [lo, hi).
// Called by the backend from its slow path, never by mutator code.
func (c *Context) SetRegion(lo, hi types.Addr) {
	if lo > hi {
		hi = lo
	}
	c.cursor, c.limit = lo, hi
}

// Invalidate empties the context so the next allocation takes the slow
// path. The heap invalidates every context when the ephemeral range is
// reset after a collection.
func (c *Context) Invalidate() {
	c.cursor, c.limit = 0, 0
}
