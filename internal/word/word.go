// Package word contains the machine-word constants and the endian-safe
// word access helpers used by the allocator, the write barrier, and the
// collector. All raw offset arithmetic against the heap mapping funnels
// through this package.
package word

import "encoding/binary"

const (
	// Size is the machine word size in bytes: 8 on 64-bit platforms,
	// 4 on 32-bit.
	Size = 4 << (^uintptr(0) >> 63)

	// Shift is log2(Size).
	Shift = 2 + (Size >> 3)

	// Mask is the low-bit mask for word alignment.
	Mask = Size - 1
)

// U64 reads a little-endian machine word from b at off. Returns 0 when the
// read would fall outside b.
func U64(b []byte, off uint64) uint64 {
	if off+Size > uint64(len(b)) {
		return 0
	}
	if Size == 4 {
		return uint64(binary.LittleEndian.Uint32(b[off:]))
	}
	return binary.LittleEndian.Uint64(b[off:])
}

// PutU64 writes a little-endian machine word to b at off. Writes nothing
// when the store would fall outside b.
func PutU64(b []byte, off uint64, v uint64) {
	if off+Size > uint64(len(b)) {
		return
	}
	if Size == 4 {
		binary.LittleEndian.PutUint32(b[off:], uint32(v))
		return
	}
	binary.LittleEndian.PutUint64(b[off:], v)
}
