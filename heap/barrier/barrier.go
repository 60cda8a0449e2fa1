// Package barrier implements the store barrier executed on every
// reference-field write. The raw store always happens; a card is marked
// only when the destination lies inside the GC-tracked range and the new
// value points into the ephemeral range. Only the new value's generation
// matters: the collector needs old-to-young pointers, never young-to-old.
package barrier

import (
	"github.com/heaplab/gckit/heap"
	"github.com/heaplab/gckit/pkg/types"
)

// Writer performs barriered reference stores against one heap. Safe for
// concurrent use by any number of mutator threads.
type Writer struct {
	h *heap.Heap
}

// New creates a Writer for h.
func New(h *heap.Heap) *Writer {
	return &Writer{h: h}
}

// Store writes ref into the reference field at field and marks the
// covering card when required. field must lie within the heap's reserved
// mapping (the scratch page counts); ref may be nil, unchanged, or any
// address.
func (w *Writer) Store(field, ref types.Addr) {
	w.h.SetWord(field, uint64(ref))

	// Destinations outside the tracked range are unboxed aggregates
	// that merely alias object shape: store done, nothing to mark.
	b := w.h.Bounds()
	if field < b.Lowest || field >= b.Highest {
		return
	}
	if ref >= b.EphemeralLow && ref < b.EphemeralHigh {
		// Cards() is an acquire-ordered pointer load, sequenced
		// after the bounds check above, so a table swapped in by
		// concurrent heap growth is never observed stale.
		w.h.Cards().Mark(field)
	}
}

// Load reads the reference field at field. Loads need no barrier; this is
// a convenience mirroring Store.
func (w *Writer) Load(field types.Addr) types.Addr {
	return types.Addr(w.h.Word(field))
}
