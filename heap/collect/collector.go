package collect

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/heaplab/gckit/heap"
	"github.com/heaplab/gckit/heap/card"
	"github.com/heaplab/gckit/heap/handle"
	"github.com/heaplab/gckit/internal/word"
	"github.com/heaplab/gckit/layout"
	"github.com/heaplab/gckit/pkg/types"
)

// Collector is the reference generational collector. Register it on the
// heap with SetCollector; the heap's slow path then drives it, and
// Heap.Collect triggers it explicitly.
type Collector struct {
	h       *heap.Heap
	handles *handle.Table
	reg     *layout.Registry

	// Per-cycle scratch state, rebuilt by reset.
	marked  *roaring64.Bitmap
	forward map[types.Addr]types.Addr
	work    []types.Addr

	stats Stats
}

var _ heap.Collector = (*Collector)(nil)

// New creates a collector over h rooting from handles and resolving object
// headers through reg. The registry must be the one the mutators allocate
// with.
func New(h *heap.Heap, handles *handle.Table, reg *layout.Registry) *Collector {
	return &Collector{
		h:       h,
		handles: handles,
		reg:     reg,
		marked:  roaring64.New(),
	}
}

// Collect runs one stop-the-world collection of the given generation.
func (c *Collector) Collect(gen types.Generation) error {
	switch gen {
	case types.GenMinor:
		return c.minor()
	case types.GenFull:
		return c.full()
	default:
		return fmt.Errorf("%w: %d", ErrBadGeneration, gen)
	}
}

// minor promotes every reachable nursery object into the old space and
// resets the nursery. Roots are strong handles plus old-space objects whose
// cards are marked; the card table is the only record of old-to-young
// references, so an unmarked old object cannot reach the nursery.
func (c *Collector) minor() error {
	c.reset()
	b := c.h.Bounds()
	oldLo, oldCur := c.h.OldRange()

	// Nothing before the rewrite pass mutates a field or a handle, so a
	// failed cycle unwinds by dropping the old-space cursor back over the
	// partial copies; they are unreachable and cost nothing.
	promoted, promotedBytes := c.stats.Promoted, c.stats.PromotedBytes
	unwind := func(err error) error {
		c.h.SetOldCursor(oldCur)
		c.stats.Promoted = promoted
		c.stats.PromotedBytes = promotedBytes
		return err
	}

	cards := c.h.Cards()
	for a := oldLo; a < oldCur; {
		d, size, err := c.describe(a)
		if err != nil {
			return unwind(err)
		}
		if !d.IsFree() && d.ContainsPointers() && cardsTouch(cards, a, size) {
			if err := c.promoteRefs(b, a, d); err != nil {
				return unwind(err)
			}
		}
		a += types.Addr(size)
	}

	var herr error
	c.handles.ForEach(func(_ handle.Handle, kind handle.Kind, target types.Addr) {
		if herr != nil || kind != handle.KindStrong || !b.InEphemeral(target) {
			return
		}
		_, herr = c.promote(target)
	})
	if herr != nil {
		return unwind(herr)
	}

	// Transitive closure: promoted copies still hold nursery references,
	// promote their referents until no copy is left unscanned.
	for len(c.work) > 0 {
		a := c.work[len(c.work)-1]
		c.work = c.work[:len(c.work)-1]
		d, _, err := c.describe(a)
		if err != nil {
			return unwind(err)
		}
		if err := c.promoteRefs(b, a, d); err != nil {
			return unwind(err)
		}
	}

	// Rewrite surviving nursery references through the forwarding table.
	// The walk covers the copies appended above; references to dead
	// nursery objects forward to Nil.
	_, newCur := c.h.OldRange()
	for a := oldLo; a < newCur; {
		d, size, err := c.describe(a)
		if err != nil {
			return err
		}
		if !d.IsFree() {
			c.eachRef(a, d, func(slot types.Addr) {
				if v := types.Addr(c.h.Word(slot)); b.InEphemeral(v) {
					c.h.SetWord(slot, uint64(c.forward[v]))
				}
			})
		}
		a += types.Addr(size)
	}
	c.fixHandles(func(target types.Addr) (types.Addr, bool) {
		if !b.InEphemeral(target) {
			// Old-space referents are untouched by a minor cycle.
			return target, true
		}
		to, ok := c.forward[target]
		return to, ok
	})

	c.h.Cards().Reset()
	c.h.ResetNursery()
	c.stats.Minor++
	return nil
}

// full marks the whole heap from strong handles, slides live old-space
// objects down, appends the surviving nursery objects behind them, and
// stamps the reclaimed tail as free space.
func (c *Collector) full() error {
	c.reset()
	b := c.h.Bounds()
	oldLo, oldCur := c.h.OldRange()

	var herr error
	c.handles.ForEach(func(_ handle.Handle, kind handle.Kind, target types.Addr) {
		if herr != nil || kind != handle.KindStrong {
			return
		}
		herr = c.mark(b, target)
	})
	if herr != nil {
		return herr
	}
	for len(c.work) > 0 {
		a := c.work[len(c.work)-1]
		c.work = c.work[:len(c.work)-1]
		d, _, err := c.describe(a)
		if err != nil {
			return err
		}
		var merr error
		c.eachRef(a, d, func(slot types.Addr) {
			if merr == nil {
				merr = c.mark(b, types.Addr(c.h.Word(slot)))
			}
		})
		if merr != nil {
			return merr
		}
	}

	// Plan the moves. Old space slides down in address order, then the
	// surviving nursery objects land behind it, so every destination is
	// at or below its source.
	type move struct {
		from, to types.Addr
		size     uint64
	}
	var moves []move
	to := oldLo
	for a := oldLo; a < oldCur; {
		d, size, err := c.describe(a)
		if err != nil {
			return err
		}
		switch {
		case d.IsFree():
		case c.marked.Contains(uint64(a)):
			c.forward[a] = to
			moves = append(moves, move{from: a, to: to, size: size})
			to += types.Addr(size)
		default:
			c.stats.FreedBytes += size
		}
		a += types.Addr(size)
	}
	limit := c.h.OldLimit()
	it := c.marked.Iterator()
	for it.HasNext() {
		a := types.Addr(it.Next())
		if !b.InEphemeral(a) {
			continue
		}
		_, size, err := c.describe(a)
		if err != nil {
			return err
		}
		if to+types.Addr(size) > limit {
			return fmt.Errorf("promoting %#x: %w", uint64(a), heap.ErrOutOfMemory)
		}
		c.forward[a] = to
		moves = append(moves, move{from: a, to: to, size: size})
		to += types.Addr(size)
		c.stats.Promoted++
		c.stats.PromotedBytes += size
	}

	// Rewrite references while objects are still at their pre-move
	// addresses. Every heap reference held by a live object is itself
	// live, so the forwarding table covers it.
	for _, m := range moves {
		d, _, err := c.describe(m.from)
		if err != nil {
			return err
		}
		c.eachRef(m.from, d, func(slot types.Addr) {
			if v := types.Addr(c.h.Word(slot)); v != types.Nil && b.InHeap(v) {
				c.h.SetWord(slot, uint64(c.forward[v]))
			}
		})
	}
	c.fixHandles(func(target types.Addr) (types.Addr, bool) {
		if !b.InHeap(target) {
			return target, true
		}
		to, ok := c.forward[target]
		return to, ok
	})

	// Move in plan order: ascending destinations below their sources
	// mean earlier copies never clobber a later source.
	data := c.h.Bytes()
	for _, m := range moves {
		if m.to != m.from {
			copy(data[m.to:m.to+types.Addr(m.size)], data[m.from:m.from+types.Addr(m.size)])
		}
	}

	if to < oldCur {
		c.stampFree(to, uint64(oldCur-to))
	}
	c.h.SetOldCursor(to)

	// The nursery is empty after promotion, so no old-to-young
	// references remain and the card table starts clean.
	c.h.Cards().Reset()
	c.h.ResetNursery()
	c.stats.Full++
	return nil
}

// mark queues the object at a for scanning unless it is nil, outside the
// heap, or already marked.
func (c *Collector) mark(b *heap.Bounds, a types.Addr) error {
	if a == types.Nil || !b.InHeap(a) {
		return nil
	}
	if c.marked.Contains(uint64(a)) {
		return nil
	}
	d, _, err := c.describe(a)
	if err != nil {
		return err
	}
	if d.IsFree() {
		return fmt.Errorf("%w: reference into free space at %#x", ErrHeapCorrupt, uint64(a))
	}
	c.marked.Add(uint64(a))
	c.work = append(c.work, a)
	return nil
}

// promote copies the nursery object at a into the old space and queues the
// copy for scanning. Idempotent per address.
func (c *Collector) promote(a types.Addr) (types.Addr, error) {
	if to, ok := c.forward[a]; ok {
		return to, nil
	}
	d, size, err := c.describe(a)
	if err != nil {
		return types.Nil, err
	}
	if d.IsFree() {
		return types.Nil, fmt.Errorf("%w: free stamp at %#x in the nursery", ErrHeapCorrupt, uint64(a))
	}
	to, err := c.h.AllocOld(size)
	if err != nil {
		return types.Nil, fmt.Errorf("promoting %#x: %w", uint64(a), err)
	}
	data := c.h.Bytes()
	copy(data[to:to+types.Addr(size)], data[a:a+types.Addr(size)])
	c.forward[a] = to
	c.work = append(c.work, to)
	c.stats.Promoted++
	c.stats.PromotedBytes += size
	return to, nil
}

// promoteRefs promotes every nursery object the object at a references.
// Fields are not rewritten here; the caller runs a separate rewrite pass
// once the forwarding table is complete.
func (c *Collector) promoteRefs(b *heap.Bounds, a types.Addr, d *layout.Descriptor) error {
	var err error
	c.eachRef(a, d, func(slot types.Addr) {
		if err != nil {
			return
		}
		if v := types.Addr(c.h.Word(slot)); b.InEphemeral(v) {
			_, err = c.promote(v)
		}
	})
	return err
}

// fixHandles rewrites every handle slot through resolve. Weak handles whose
// referent did not survive are cleared; a dead strong referent cannot occur
// because strong handles are roots.
func (c *Collector) fixHandles(resolve func(types.Addr) (types.Addr, bool)) {
	c.handles.ForEach(func(h handle.Handle, kind handle.Kind, target types.Addr) {
		if target == types.Nil {
			return
		}
		to, ok := resolve(target)
		switch {
		case ok:
			if to != target {
				c.handles.Set(h, to)
			}
		case kind == handle.KindWeak:
			c.handles.Set(h, types.Nil)
			c.stats.WeaksCleared++
		}
	})
}

// describe resolves the descriptor and total aligned size of the object
// at a.
func (c *Collector) describe(a types.Addr) (*layout.Descriptor, uint64, error) {
	d, err := c.reg.Lookup(layout.ID(c.h.Word(a)))
	if err != nil {
		return nil, 0, fmt.Errorf("object at %#x: %w", uint64(a), err)
	}
	var n uint64
	if d.IsArray() {
		n = c.h.Word(a + word.Size)
	}
	return d, d.Size(n), nil
}

// eachRef calls fn with the address of every reference slot of the object
// at a. Series offsets are payload-relative for plain layouts and
// element-relative for array-like ones.
func (c *Collector) eachRef(a types.Addr, d *layout.Descriptor, fn func(slot types.Addr)) {
	if !d.ContainsPointers() {
		return
	}
	if d.IsArray() {
		n := c.h.Word(a + word.Size)
		elem := a + (layout.HeaderWords+1)*word.Size + types.Addr(d.BaseSize())
		for i := uint64(0); i < n; i++ {
			for _, s := range d.Series() {
				slot := elem + types.Addr(s.Offset)
				for k := uint32(0); k < s.Count; k++ {
					fn(slot)
					slot += word.Size
				}
			}
			elem += types.Addr(d.ComponentSize())
		}
		return
	}
	payload := a + layout.HeaderWords*word.Size
	for _, s := range d.Series() {
		slot := payload + types.Addr(s.Offset)
		for k := uint32(0); k < s.Count; k++ {
			fn(slot)
			slot += word.Size
		}
	}
}

// stampFree formats [a, a+size) as a single free-space object. size is
// word-aligned and at least the sentinel's minimum instance size because it
// is a sum of reclaimed object sizes.
func (c *Collector) stampFree(a types.Addr, size uint64) {
	data := c.h.Bytes()
	clear(data[a : a+types.Addr(size)])
	free := c.reg.FreeSentinel()
	c.h.SetWord(a, uint64(free.ID()))
	// The element count is chosen so the stamp's computed size spans the
	// whole gap.
	c.h.SetWord(a+word.Size, (size-free.ArraySize(0))/free.ComponentSize())
}

// reset clears the per-cycle scratch state.
func (c *Collector) reset() {
	c.marked = roaring64.New()
	c.forward = make(map[types.Addr]types.Addr)
	c.work = c.work[:0]
}

// cardsTouch reports whether any card covering [a, a+size) is marked.
func cardsTouch(t *card.Table, a types.Addr, size uint64) bool {
	cs := types.Addr(card.CardSize())
	for ca := a &^ (cs - 1); ca < a+types.Addr(size); ca += cs {
		if t.IsMarked(ca) {
			return true
		}
	}
	return false
}
