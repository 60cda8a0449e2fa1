package heap

import (
	"sync"
	"sync/atomic"

	"github.com/heaplab/gckit/heap/alloc"
	"github.com/heaplab/gckit/heap/card"
	"github.com/heaplab/gckit/internal/mmseg"
	"github.com/heaplab/gckit/internal/word"
	"github.com/heaplab/gckit/pkg/types"
)

// Base is the lowest GC-tracked address. The page below it is scratch
// space: storable through the write barrier but outside the heap bounds,
// the way unboxed aggregates alias object shape without being tracked.
const Base types.Addr = 0x1000

// Collector is the external collection hook the heap triggers when the
// slow path runs out of nursery. Implementations run with all mutators
// quiesced; the heap guarantees no allocation happens concurrently.
type Collector interface {
	Collect(gen types.Generation) error
}

// Heap owns the reserved mapping and the space accounting on top of it.
// All slow-path state is guarded by mu; the bounds snapshot and the card
// table are published through atomic pointers for the barrier's lock-free
// reads.
type Heap struct {
	cfg     Config
	data    []byte
	release func() error

	bounds atomic.Pointer[Bounds]
	cards  atomic.Pointer[card.Table]

	mu            sync.Mutex
	oldCursor     types.Addr
	oldLimit      types.Addr
	nurseryLo     types.Addr
	nurseryCursor types.Addr
	committed     types.Addr
	reserved      types.Addr
	contexts      []*alloc.Context
	collector     Collector
	stats         Stats
}

// New reserves the address space described by cfg and lays out the scratch
// page, old space, and initial nursery.
func New(cfg Config) (*Heap, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	data, release, err := mmseg.Reserve(int(cfg.ReserveSize))
	if err != nil {
		return nil, err
	}

	h := &Heap{
		cfg:     cfg,
		data:    data,
		release: release,
	}
	h.oldCursor = Base
	h.oldLimit = Base + types.Addr(cfg.OldSize)
	h.nurseryLo = h.oldLimit
	h.nurseryCursor = h.nurseryLo
	h.committed = h.nurseryLo + types.Addr(cfg.NurserySize)
	h.reserved = types.Addr(cfg.ReserveSize)

	h.cards.Store(card.NewTable(h.committed))
	h.publishBoundsLocked()
	return h, nil
}

// Close releases the reserved mapping. The heap must not be used after.
func (h *Heap) Close() error {
	return h.release()
}

// Bytes exposes the backing mapping. Implements alloc.Backend.
func (h *Heap) Bytes() []byte { return h.data }

// Bounds returns the current bounds snapshot.
func (h *Heap) Bounds() *Bounds { return h.bounds.Load() }

// Cards returns the current card table. The load is acquire-ordered, so a
// table observed here is never older than the bounds snapshot a caller
// read before it.
func (h *Heap) Cards() *card.Table { return h.cards.Load() }

// Word reads the machine word at a.
func (h *Heap) Word(a types.Addr) uint64 {
	return word.U64(h.data, uint64(a))
}

// SetWord writes the machine word at a.
func (h *Heap) SetWord(a types.Addr, v uint64) {
	word.PutU64(h.data, uint64(a), v)
}

// NewContext creates an allocation context for one mutator thread. The
// heap keeps track of it so the context can be invalidated when the
// nursery is reset.
func (h *Heap) NewContext() *alloc.Context {
	ctx := alloc.NewContext(h)
	h.mu.Lock()
	h.contexts = append(h.contexts, ctx)
	h.mu.Unlock()
	return ctx
}

// ReleaseContext invalidates ctx and drops it from the heap's tracking.
// Call it when a mutator thread exits; the context must not be used
// afterwards.
func (h *Heap) ReleaseContext(ctx *alloc.Context) {
	h.mu.Lock()
	for i, c := range h.contexts {
		if c == ctx {
			last := len(h.contexts) - 1
			h.contexts[i] = h.contexts[last]
			h.contexts[last] = nil
			h.contexts = h.contexts[:last]
			break
		}
	}
	h.mu.Unlock()
	ctx.Invalidate()
}

// SetCollector registers the collection hook.
func (h *Heap) SetCollector(c Collector) {
	h.mu.Lock()
	h.collector = c
	h.mu.Unlock()
}

// Collect explicitly triggers a collection of the given generation.
func (h *Heap) Collect(gen types.Generation) error {
	h.mu.Lock()
	c := h.collector
	h.mu.Unlock()
	if c == nil {
		return ErrNoCollector
	}
	return c.Collect(gen)
}

// SlowAllocate services an allocation the bump fast path could not. It
// carves a fresh region into ctx, places large objects directly in the
// old space, and triggers collection and growth before giving up with
// ErrOutOfMemory. Implements alloc.Backend.
func (h *Heap) SlowAllocate(ctx *alloc.Context, size uint64, flags types.AllocFlags) (types.Addr, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.SlowPaths++

	if flags&types.AllocLarge != 0 || size >= h.cfg.LargeObjectSize {
		if addr, ok := h.allocOldLocked(size); ok {
			h.stats.LargeAllocs++
			return addr, nil
		}
		if err := h.collectLocked(types.GenFull); err == nil {
			if addr, ok := h.allocOldLocked(size); ok {
				h.stats.LargeAllocs++
				return addr, nil
			}
		}
		return types.Nil, ErrOutOfMemory
	}

	if addr, ok := h.carveLocked(ctx, size); ok {
		return addr, nil
	}
	if err := h.collectLocked(types.GenMinor); err == nil {
		if addr, ok := h.carveLocked(ctx, size); ok {
			return addr, nil
		}
	}
	if h.growLocked() {
		if addr, ok := h.carveLocked(ctx, size); ok {
			return addr, nil
		}
	}
	return types.Nil, ErrOutOfMemory
}

// carveLocked cuts a bump region out of the nursery: the request is
// served from the region's start and the remainder goes into ctx.
func (h *Heap) carveLocked(ctx *alloc.Context, size uint64) (types.Addr, bool) {
	avail := uint64(h.committed - h.nurseryCursor)
	if avail < size {
		return types.Nil, false
	}
	n := h.cfg.RegionSize
	if n < size {
		n = size
	}
	if n > avail {
		n = avail
	}
	addr := h.nurseryCursor
	h.nurseryCursor += types.Addr(n)
	ctx.SetRegion(addr+types.Addr(size), addr+types.Addr(n))
	h.stats.Regions++
	return addr, true
}

// allocOldLocked bump-allocates directly in the old space. The returned
// range is zero-filled: old space can hold stale free-space stamps from a
// previous compaction.
func (h *Heap) allocOldLocked(size uint64) (types.Addr, bool) {
	if uint64(h.oldLimit-h.oldCursor) < size {
		return types.Nil, false
	}
	addr := h.oldCursor
	h.oldCursor += types.Addr(size)
	clear(h.data[addr : addr+types.Addr(size)])
	return addr, true
}

// collectLocked runs the registered collector with mu released. Mutators
// are quiesced by contract, so dropping the lock hands the heap to the
// collector without interleaving allocations.
func (h *Heap) collectLocked(gen types.Generation) error {
	c := h.collector
	if c == nil {
		return ErrNoCollector
	}
	h.stats.Collections++
	h.mu.Unlock()
	err := c.Collect(gen)
	h.mu.Lock()
	return err
}

// growLocked extends the committed range one nursery step toward the
// reserve and publishes a regrown card table followed by fresh bounds.
func (h *Heap) growLocked() bool {
	if h.committed >= h.reserved {
		return false
	}
	next := h.committed + types.Addr(h.cfg.NurserySize)
	if next > h.reserved {
		next = h.reserved
	}
	h.committed = next
	h.stats.Grows++

	// Swap, never mutate: barrier readers hold either the old table or
	// the new one, both covering every currently marked card.
	h.cards.Store(h.cards.Load().GrowTo(h.committed))
	h.publishBoundsLocked()
	return true
}

func (h *Heap) publishBoundsLocked() {
	h.bounds.Store(&Bounds{
		Lowest:        Base,
		Highest:       h.committed,
		EphemeralLow:  h.nurseryLo,
		EphemeralHigh: h.committed,
	})
}

// ---- collector-facing surface (callers run with mutators quiesced)

// OldRange returns the old space's low bound and allocation cursor.
func (h *Heap) OldRange() (lo, cursor types.Addr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Base, h.oldCursor
}

// OldLimit returns the exclusive upper bound of the old space.
func (h *Heap) OldLimit() types.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.oldLimit
}

// SetOldCursor rewinds the old-space cursor after compaction.
func (h *Heap) SetOldCursor(a types.Addr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if a >= Base && a <= h.oldLimit {
		h.oldCursor = a
	}
}

// NurseryRange returns the ephemeral range's low bound and carve cursor.
func (h *Heap) NurseryRange() (lo, cursor types.Addr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nurseryLo, h.nurseryCursor
}

// AllocOld places size bytes in the old space, used for promotion and
// large objects. Never triggers collection.
func (h *Heap) AllocOld(size uint64) (types.Addr, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	addr, ok := h.allocOldLocked(word.AlignUp(size))
	if !ok {
		return types.Nil, ErrOutOfMemory
	}
	return addr, nil
}

// ResetNursery re-zeroes the used nursery, rewinds the carve cursor, and
// invalidates every allocation context so the next allocation on each
// takes the slow path.
func (h *Heap) ResetNursery() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.data[h.nurseryLo:h.nurseryCursor])
	h.nurseryCursor = h.nurseryLo
	for _, ctx := range h.contexts {
		ctx.Invalidate()
	}
}

var _ alloc.Backend = (*Heap)(nil)
