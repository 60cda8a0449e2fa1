// Package card implements the card table: one saturated mark byte per
// 2^ByteShift bytes of heap, recording which regions may hold references
// into the ephemeral (young) range.
//
// Marking is a monotonic atomic OR, so concurrent mutators racing on the
// same card only ever add marks; over-marking is safe, lost marks are not.
// The collector clears cards after scanning them and resets the table once
// no old-to-young references remain.
package card

import (
	"sync/atomic"

	"github.com/heaplab/gckit/internal/word"
	"github.com/heaplab/gckit/pkg/types"
)

const (
	// ByteShift converts an address to its card index. Wider address
	// spaces use a larger shift to keep the table size manageable:
	// 2 KiB cards on 64-bit platforms, 1 KiB on 32-bit.
	ByteShift = 8 + word.Shift

	// Marked is the saturated mark value. A full byte rather than a
	// single bit, so finer-grained marking schemes layered on top stay
	// forward-compatible.
	Marked = 0xFF
)

// Table maps addresses in [0, Cover) to mark bytes. Mark bytes are packed
// four to a uint32 so marking can be a single atomic OR.
type Table struct {
	cover types.Addr
	words []uint32
}

// NewTable builds a table covering addresses in [0, cover), all unmarked.
func NewTable(cover types.Addr) *Table {
	cards := (uint64(cover) >> ByteShift) + 1
	return &Table{
		cover: cover,
		words: make([]uint32, (cards+3)/4),
	}
}

// Cover returns the exclusive upper bound of the covered address range.
func (t *Table) Cover() types.Addr { return t.cover }

// Mark saturates the card covering addr. Addresses beyond the covered
// range are ignored. Safe for concurrent use.
func (t *Table) Mark(addr types.Addr) {
	if addr >= t.cover {
		return
	}
	idx := uint64(addr) >> ByteShift
	w := &t.words[idx>>2]
	mask := uint32(Marked) << ((idx & 3) * 8)
	if atomic.LoadUint32(w)&mask != mask {
		atomic.OrUint32(w, mask)
	}
}

// IsMarked reports whether the card covering addr is saturated.
func (t *Table) IsMarked(addr types.Addr) bool {
	if addr >= t.cover {
		return false
	}
	idx := uint64(addr) >> ByteShift
	mask := uint32(Marked) << ((idx & 3) * 8)
	return atomic.LoadUint32(&t.words[idx>>2])&mask == mask
}

// Clear unmarks the card covering addr. Called by the collector after the
// card's contents have been scanned.
func (t *Table) Clear(addr types.Addr) {
	if addr >= t.cover {
		return
	}
	idx := uint64(addr) >> ByteShift
	mask := uint32(Marked) << ((idx & 3) * 8)
	atomic.AndUint32(&t.words[idx>>2], ^mask)
}

// Reset unmarks every card. Only valid while mutators are quiesced.
func (t *Table) Reset() {
	for i := range t.words {
		atomic.StoreUint32(&t.words[i], 0)
	}
}

// CardSize returns the number of bytes one card covers.
func CardSize() uint64 { return 1 << ByteShift }

// GrowTo builds a table covering the wider range [0, cover), carrying over
// every existing mark. The receiver is left untouched; the caller publishes
// the returned table with an atomic store.
func (t *Table) GrowTo(cover types.Addr) *Table {
	if cover <= t.cover {
		return t
	}
	nt := NewTable(cover)
	copy(nt.words, t.words)
	return nt
}
