package layout

import (
	"fmt"
	"math"

	"github.com/heaplab/gckit/internal/word"
)

// ID identifies a registered descriptor. The id is the value written into
// the header word of every instance. ID 0 is never valid.
type ID uint32

// FreeID is the reserved id of the free-space sentinel descriptor. The
// collector stamps reclaimed-but-not-yet-reused ranges with it so linear
// heap walks can skip dead space. Application code must never allocate it.
const FreeID ID = 1

// HeaderWords is the number of header words preceding the payload: one for
// the descriptor id, plus one element-count word for array-like layouts.
const HeaderWords = 1

// WordSize is the reference slot size in bytes. Reference offsets passed to
// Registry.Describe must be multiples of it.
const WordSize = word.Size

// Series describes one run of consecutive reference-holding words:
// Count references starting at payload offset Offset.
type Series struct {
	Offset uint64
	Count  uint32
}

// Descriptor is the immutable per-type layout record. Construct through
// Registry.Describe; the zero Descriptor is not valid.
type Descriptor struct {
	id            ID
	baseSize      uint64
	componentSize uint64
	series        []Series
}

// ID returns the registered descriptor id.
func (d *Descriptor) ID() ID { return d.id }

// BaseSize returns the fixed payload size in bytes, header excluded.
func (d *Descriptor) BaseSize() uint64 { return d.baseSize }

// ComponentSize returns the per-element size for array-like layouts, or 0.
func (d *Descriptor) ComponentSize() uint64 { return d.componentSize }

// IsArray reports whether instances carry a trailing element sequence.
func (d *Descriptor) IsArray() bool { return d.componentSize > 0 }

// IsFree reports whether this is the reserved free-space sentinel.
func (d *Descriptor) IsFree() bool { return d.id == FreeID }

// ContainsPointers reports whether any instance word can hold a reference.
// When false the write barrier and reference scanning never touch the type.
func (d *Descriptor) ContainsPointers() bool { return len(d.series) > 0 }

// Series returns the reference runs. For plain layouts offsets are relative
// to the payload start; for array-like layouts they are relative to each
// element. The returned slice must not be mutated.
func (d *Descriptor) Series() []Series { return d.series }

// InstanceSize returns the total aligned byte size of a plain instance,
// header included.
func (d *Descriptor) InstanceSize() uint64 {
	return word.AlignUp(HeaderWords*word.Size + d.baseSize)
}

// ArraySize returns the total aligned byte size of an array-like instance
// with n elements: id word, count word, fixed payload, then elements.
// Counts beyond MaxElements saturate to math.MaxUint64 instead of wrapping,
// so an impossible instance can never masquerade as a small one.
func (d *Descriptor) ArraySize(n uint64) uint64 {
	if n > d.MaxElements() {
		return math.MaxUint64
	}
	return word.AlignUp((HeaderWords+1)*word.Size + d.baseSize + n*d.componentSize)
}

// MaxElements returns the largest element count whose total instance size
// still fits in a uint64 after alignment. Zero for plain layouts.
func (d *Descriptor) MaxElements() uint64 {
	if d.componentSize == 0 {
		return 0
	}
	fixed := uint64((HeaderWords+1)*word.Size) + d.baseSize + word.Mask
	return (math.MaxUint64 - fixed) / d.componentSize
}

// Size returns the total byte size of an instance carrying n elements,
// ignoring n for plain layouts.
func (d *Descriptor) Size(n uint64) uint64 {
	if d.IsArray() {
		return d.ArraySize(n)
	}
	return d.InstanceSize()
}

// compileSeries validates reference offsets against the addressable extent
// and folds consecutive word offsets into (offset, count) runs.
func compileSeries(extent uint64, refOffsets []uint64) ([]Series, error) {
	if len(refOffsets) == 0 {
		return nil, nil
	}
	series := make([]Series, 0, 1)
	prev := uint64(0)
	for i, off := range refOffsets {
		if off >= extent || off+word.Size > extent {
			return nil, fmt.Errorf("%w: reference offset %d outside [0, %d)",
				ErrInvalidLayout, off, extent)
		}
		if !word.Aligned(off) {
			return nil, fmt.Errorf("%w: reference offset %d not word-aligned",
				ErrInvalidLayout, off)
		}
		if i > 0 && off <= prev {
			return nil, fmt.Errorf("%w: reference offsets not strictly increasing (%d after %d)",
				ErrInvalidLayout, off, prev)
		}
		if n := len(series); n > 0 && off == prev+word.Size {
			series[n-1].Count++
		} else {
			series = append(series, Series{Offset: off, Count: 1})
		}
		prev = off
	}
	return series, nil
}
