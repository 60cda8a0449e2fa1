package heap

import "fmt"

// Config sizes the managed address space. The zero value of any field is
// replaced by its default.
type Config struct {
	// ReserveSize is the total reserved address range in bytes. The
	// committed range starts smaller and grows toward it.
	ReserveSize uint64

	// OldSize is the fixed size of the old space.
	OldSize uint64

	// NurserySize is the initial committed size of the ephemeral range,
	// and the step by which the heap grows it.
	NurserySize uint64

	// RegionSize is the bump-region size carved into allocation
	// contexts.
	RegionSize uint64

	// LargeObjectSize is the threshold at or above which allocations
	// bypass the nursery and go directly to the old space.
	LargeObjectSize uint64
}

// Defaults, sized for tests and tools rather than production heaps.
const (
	DefaultReserveSize     = 64 << 20
	DefaultOldSize         = 8 << 20
	DefaultNurserySize     = 1 << 20
	DefaultRegionSize      = 64 << 10
	DefaultLargeObjectSize = 32 << 10
)

func (c Config) withDefaults() Config {
	if c.ReserveSize == 0 {
		c.ReserveSize = DefaultReserveSize
	}
	if c.OldSize == 0 {
		c.OldSize = DefaultOldSize
	}
	if c.NurserySize == 0 {
		c.NurserySize = DefaultNurserySize
	}
	if c.RegionSize == 0 {
		c.RegionSize = DefaultRegionSize
	}
	if c.LargeObjectSize == 0 {
		c.LargeObjectSize = DefaultLargeObjectSize
	}
	return c
}

func (c Config) validate() error {
	if need := uint64(Base) + c.OldSize + c.NurserySize; need > c.ReserveSize {
		return fmt.Errorf("%w: scratch+old+nursery (%d) exceeds reserve (%d)",
			ErrBadConfig, need, c.ReserveSize)
	}
	if c.RegionSize > c.NurserySize {
		return fmt.Errorf("%w: region size %d exceeds nursery size %d",
			ErrBadConfig, c.RegionSize, c.NurserySize)
	}
	return nil
}
