package types

// Addr is a managed-heap address: a byte offset into the heap's reserved
// mapping. Addr 0 is the nil reference and never addresses an object.
//
// Using offsets (instead of raw pointers) keeps traversals memory-safe and
// makes addresses stable identifiers for logging and testing, while the
// allocator and barrier retain pointer-identical arithmetic.
type Addr uint64

// Nil is the zero reference.
const Nil Addr = 0

// Generation selects how much of the managed heap a collection covers.
type Generation int

const (
	// GenMinor collects only the ephemeral (nursery) range, rooting from
	// handles and from card-marked old-space objects.
	GenMinor Generation = iota

	// GenFull collects the entire heap, compacting the old space.
	GenFull
)

func (g Generation) String() string {
	switch g {
	case GenMinor:
		return "minor"
	case GenFull:
		return "full"
	default:
		return "unknown"
	}
}

// AllocFlags qualifies a slow-path allocation request.
type AllocFlags uint32

const (
	// AllocDefault requests ordinary bump-region allocation.
	AllocDefault AllocFlags = 0

	// AllocLarge requests direct old-space placement, bypassing the
	// ephemeral bump region. The heap applies this automatically to
	// requests at or above its large-object threshold.
	AllocLarge AllocFlags = 1 << iota
)
