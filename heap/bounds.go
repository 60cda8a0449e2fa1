package heap

import "github.com/heaplab/gckit/pkg/types"

// Bounds is an immutable snapshot of the heap's address ranges. The heap
// publishes a fresh snapshot whenever a range changes; holders of an old
// snapshot only ever see a consistent, possibly stale, view, never a
// half-updated one.
type Bounds struct {
	// Lowest and Highest delimit the GC-tracked range. Stores to
	// destinations outside it never mark cards.
	Lowest  types.Addr
	Highest types.Addr

	// EphemeralLow and EphemeralHigh delimit the young generation.
	// Only stores of references into this range mark cards.
	EphemeralLow  types.Addr
	EphemeralHigh types.Addr
}

// InHeap reports whether a lies inside the GC-tracked range.
func (b *Bounds) InHeap(a types.Addr) bool {
	return a >= b.Lowest && a < b.Highest
}

// InEphemeral reports whether a lies inside the young generation.
func (b *Bounds) InEphemeral(a types.Addr) bool {
	return a >= b.EphemeralLow && a < b.EphemeralHigh
}
