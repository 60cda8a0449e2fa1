// Package heap owns the managed address space and implements the slow
// allocation path behind the bump allocator, the heap-bounds snapshot the
// write barrier reads, and the swappable card table.
//
// Address space layout (offsets into one reserved mapping):
//
//	[0, Base)              scratch page: storable, never GC-tracked
//	[Base, Base+OldSize)   old space: promoted and large objects
//	[EphemeralLow, EphemeralHigh)  nursery: bump regions, grows toward
//	                               the end of the reserve
//
// The heap bounds are published as an immutable snapshot swapped with an
// atomic pointer, and the card table pointer is likewise swapped (never
// mutated in place) when the table is regrown, so the barrier's ordered
// loads can never observe a stale table against fresh bounds.
//
// Zero-fill contract: every region the heap hands to an allocation context
// and every old-space placement is zero-filled (fresh mappings are
// OS-zeroed, the nursery is re-zeroed when it is reset after a
// collection). The bump fast path itself never writes payload bytes.
package heap
