package layout

import (
	"math"
	"testing"

	"github.com/heaplab/gckit/internal/word"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDescribe_Simple registers a two-word payload with one reference field.
func TestDescribe_Simple(t *testing.T) {
	r := NewRegistry()

	d, err := r.Describe(2*word.Size, 0, []uint64{0})
	require.NoError(t, err)
	require.NotNil(t, d)

	assert.True(t, d.ContainsPointers())
	assert.False(t, d.IsArray())
	assert.False(t, d.IsFree())
	assert.Equal(t, uint64(2*word.Size), d.BaseSize())
	assert.Equal(t, []Series{{Offset: 0, Count: 1}}, d.Series())

	// Header word + payload.
	assert.Equal(t, uint64(3*word.Size), d.InstanceSize())
}

// TestDescribe_SeriesFolding verifies consecutive offsets fold into runs.
func TestDescribe_SeriesFolding(t *testing.T) {
	r := NewRegistry()

	offs := []uint64{0, word.Size, 2 * word.Size, 4 * word.Size}
	d, err := r.Describe(6*word.Size, 0, offs)
	require.NoError(t, err)

	want := []Series{
		{Offset: 0, Count: 3},
		{Offset: 4 * word.Size, Count: 1},
	}
	assert.Equal(t, want, d.Series())
}

// TestDescribe_InvalidOffsets covers the ErrInvalidLayout conditions.
func TestDescribe_InvalidOffsets(t *testing.T) {
	r := NewRegistry()

	// Out of range.
	_, err := r.Describe(word.Size, 0, []uint64{word.Size})
	assert.ErrorIs(t, err, ErrInvalidLayout)

	// Last word only partially inside the payload.
	_, err = r.Describe(word.Size+1, 0, []uint64{word.Size})
	assert.ErrorIs(t, err, ErrInvalidLayout)

	// Misaligned.
	_, err = r.Describe(4*word.Size, 0, []uint64{1})
	assert.ErrorIs(t, err, ErrInvalidLayout)

	// Not strictly increasing.
	_, err = r.Describe(4*word.Size, 0, []uint64{word.Size, word.Size})
	assert.ErrorIs(t, err, ErrInvalidLayout)
	_, err = r.Describe(4*word.Size, 0, []uint64{2 * word.Size, word.Size})
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

// TestDescribe_NoPointers registers a pointer-free layout.
func TestDescribe_NoPointers(t *testing.T) {
	r := NewRegistry()

	d, err := r.Describe(4*word.Size, 0, nil)
	require.NoError(t, err)
	assert.False(t, d.ContainsPointers())
	assert.Empty(t, d.Series())
}

// TestDescribe_Array verifies element-relative validation and size math.
func TestDescribe_Array(t *testing.T) {
	r := NewRegistry()

	// Array of two-word elements, first element word is a reference.
	d, err := r.Describe(0, 2*word.Size, []uint64{0})
	require.NoError(t, err)
	assert.True(t, d.IsArray())
	assert.True(t, d.ContainsPointers())

	// id word + count word + 3 elements.
	assert.Equal(t, uint64(2*word.Size+3*2*word.Size), d.ArraySize(3))
	assert.Equal(t, d.ArraySize(3), d.Size(3))

	// Offsets validate against the element extent, not baseSize.
	_, err = r.Describe(0, word.Size, []uint64{word.Size})
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

// TestArraySize_OverflowSaturates verifies counts whose byte size cannot
// fit in a uint64 saturate instead of wrapping to a small size.
func TestArraySize_OverflowSaturates(t *testing.T) {
	r := NewRegistry()

	eight, err := r.Describe(0, word.Size, []uint64{0})
	require.NoError(t, err)

	max := eight.MaxElements()
	require.NotZero(t, max)

	// At the boundary the size is real and at least the fixed part.
	fixed := eight.ArraySize(0)
	assert.GreaterOrEqual(t, eight.ArraySize(max), fixed)
	assert.NotEqual(t, uint64(math.MaxUint64), eight.ArraySize(max))

	// One past it, and far past it, saturate.
	assert.Equal(t, uint64(math.MaxUint64), eight.ArraySize(max+1))
	assert.Equal(t, uint64(math.MaxUint64), eight.ArraySize(1<<61))
	assert.Equal(t, uint64(math.MaxUint64), eight.Size(math.MaxUint64))

	// Plain layouts have no element capacity at all.
	plain, err := r.Describe(2*word.Size, 0, nil)
	require.NoError(t, err)
	assert.Zero(t, plain.MaxElements())
}

// TestRegistry_FreeSentinel verifies the reserved descriptor.
func TestRegistry_FreeSentinel(t *testing.T) {
	r := NewRegistry()

	free := r.FreeSentinel()
	require.NotNil(t, free)
	assert.Equal(t, FreeID, free.ID())
	assert.True(t, free.IsFree())
	assert.True(t, free.IsArray())
	assert.False(t, free.ContainsPointers())

	// A gap of n bytes is representable as a byte-filler array.
	assert.Equal(t, word.AlignUp(2*word.Size+40), free.ArraySize(40))
}

// TestRegistry_Lookup verifies id resolution rules.
func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()

	d, err := r.Describe(word.Size, 0, nil)
	require.NoError(t, err)

	got, err := r.Lookup(d.ID())
	require.NoError(t, err)
	assert.Same(t, d, got)

	assert.Nil(t, r.ByID(0), "id 0 must never resolve")
	_, err = r.Lookup(0)
	assert.ErrorIs(t, err, ErrUnknownID)
	_, err = r.Lookup(ID(99))
	assert.ErrorIs(t, err, ErrUnknownID)
}

// TestRegistry_DistinctIDs verifies ids are unique and monotone.
func TestRegistry_DistinctIDs(t *testing.T) {
	r := NewRegistry()

	a, err := r.Describe(word.Size, 0, nil)
	require.NoError(t, err)
	b, err := r.Describe(word.Size, 0, nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Greater(t, a.ID(), FreeID)
}
