package card

import (
	"testing"

	"github.com/heaplab/gckit/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestTable_MarkAndClear covers the basic mark lifecycle.
func TestTable_MarkAndClear(t *testing.T) {
	ct := NewTable(1 << 20)

	addr := types.Addr(0x4321)
	assert.False(t, ct.IsMarked(addr))

	ct.Mark(addr)
	assert.True(t, ct.IsMarked(addr))

	// Any address within the same card maps to the same mark byte.
	span := types.Addr(CardSize())
	base := addr - addr%span
	assert.True(t, ct.IsMarked(base))
	assert.True(t, ct.IsMarked(base+span-1))
	assert.False(t, ct.IsMarked(base+span))

	ct.Clear(addr)
	assert.False(t, ct.IsMarked(addr))
}

// TestTable_MarkIdempotent verifies re-marking changes nothing.
func TestTable_MarkIdempotent(t *testing.T) {
	ct := NewTable(1 << 20)

	addr := types.Addr(0x8000)
	ct.Mark(addr)
	ct.Mark(addr)
	assert.True(t, ct.IsMarked(addr))

	// Neighbouring cards stay untouched.
	span := types.Addr(CardSize())
	assert.False(t, ct.IsMarked(addr+span))
	assert.False(t, ct.IsMarked(addr-span))
}

// TestTable_OutOfCover verifies addresses past the covered range are inert.
func TestTable_OutOfCover(t *testing.T) {
	ct := NewTable(1 << 16)

	far := types.Addr(1 << 20)
	ct.Mark(far)
	assert.False(t, ct.IsMarked(far))
	ct.Clear(far) // must not panic
}

// TestTable_Reset verifies wholesale clearing.
func TestTable_Reset(t *testing.T) {
	ct := NewTable(1 << 20)

	for a := types.Addr(0); a < 1<<20; a += types.Addr(CardSize()) {
		ct.Mark(a)
	}
	ct.Reset()
	for a := types.Addr(0); a < 1<<20; a += types.Addr(CardSize()) {
		assert.False(t, ct.IsMarked(a))
	}
}

// TestTable_GrowTo verifies marks survive a regrow.
func TestTable_GrowTo(t *testing.T) {
	ct := NewTable(1 << 16)
	ct.Mark(0x1234)

	bigger := ct.GrowTo(1 << 20)
	require.NotSame(t, ct, bigger)
	assert.Equal(t, types.Addr(1<<20), bigger.Cover())
	assert.True(t, bigger.IsMarked(0x1234))

	// Newly covered range starts unmarked and markable.
	nw := types.Addr(1 << 18)
	assert.False(t, bigger.IsMarked(nw))
	bigger.Mark(nw)
	assert.True(t, bigger.IsMarked(nw))

	// Shrinking is a no-op returning the receiver.
	assert.Same(t, bigger, bigger.GrowTo(1<<16))
}

// TestTable_ConcurrentMark hammers adjacent cards from many goroutines;
// packed-byte marking must never lose or leak marks across card boundaries.
func TestTable_ConcurrentMark(t *testing.T) {
	ct := NewTable(1 << 20)
	span := types.Addr(CardSize())

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		w := w
		g.Go(func() error {
			// Each worker marks every 4th card, offset by its index,
			// so all four bytes of each packed word see contention.
			for c := types.Addr(w % 4); c < 256; c += 4 {
				ct.Mark(c * span)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for c := types.Addr(0); c < 256; c++ {
		assert.True(t, ct.IsMarked(c*span), "card %d lost its mark", c)
	}
	assert.False(t, ct.IsMarked(256*span))
}
