package handle

import (
	"sync"
	"sync/atomic"

	"github.com/heaplab/gckit/pkg/types"
)

// Kind distinguishes strong and weak handles.
type Kind uint8

const (
	KindStrong Kind = iota + 1
	KindWeak
)

func (k Kind) String() string {
	switch k {
	case KindStrong:
		return "strong"
	case KindWeak:
		return "weak"
	default:
		return "invalid"
	}
}

// Handle is a stable slot index. The zero Handle is valid; use the return
// of Create, never fabricate one.
type Handle int32

// slot state values; state doubles as the liveness flag and the kind.
const (
	stateFree = uint32(0)
	// live states are the Kind values
)

type slot struct {
	state atomic.Uint32
	addr  atomic.Uint64
}

const chunkSize = 64

type chunk [chunkSize]slot

// DefaultLimit bounds handle counts when no limit is configured.
const DefaultLimit = 1 << 20

// Table is the handle table. Create/Destroy serialize on an internal
// lock because slot claims must be unique; Read resolves through two
// atomic loads and is safe against concurrent create/destroy/collector
// updates.
type Table struct {
	mu     sync.Mutex
	chunks atomic.Pointer[[]*chunk]
	free   []Handle
	next   int
	limit  int
}

// NewTable creates a table bounded at limit slots, or DefaultLimit when
// limit <= 0.
func NewTable(limit int) *Table {
	if limit <= 0 {
		limit = DefaultLimit
	}
	t := &Table{limit: limit}
	empty := make([]*chunk, 0)
	t.chunks.Store(&empty)
	return t
}

// Create claims a slot of the given kind holding target. The referent of
// a strong handle is kept reachable for root enumeration; a weak handle
// never keeps its referent alive.
func (t *Table) Create(kind Kind, target types.Addr) (Handle, error) {
	if kind != KindStrong && kind != KindWeak {
		return 0, ErrBadKind
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var h Handle
	if n := len(t.free); n > 0 {
		h = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		if t.next >= t.limit {
			return 0, ErrTableExhausted
		}
		if err := t.ensureChunkLocked(t.next); err != nil {
			return 0, err
		}
		h = Handle(t.next)
		t.next++
	}

	s := t.slot(h)
	// Publish the address before the state: a concurrent Read either
	// sees a free slot or a fully populated one.
	s.addr.Store(uint64(target))
	s.state.Store(uint32(kind))
	return h, nil
}

// Destroy releases h. Destroying an already-destroyed or out-of-range
// handle reports ErrBadHandle.
func (t *Table) Destroy(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.slotChecked(h)
	if s == nil || s.state.Load() == stateFree {
		return ErrBadHandle
	}
	s.state.Store(stateFree)
	s.addr.Store(0)
	t.free = append(t.free, h)
	return nil
}

// Read returns the referent's current address, or Nil for destroyed
// handles and for weak handles whose referent was collected. Lock-free.
func (t *Table) Read(h Handle) types.Addr {
	s := t.slotChecked(h)
	if s == nil || s.state.Load() == stateFree {
		return types.Nil
	}
	return types.Addr(s.addr.Load())
}

// KindOf returns the kind of a live handle, or 0 for dead ones.
func (t *Table) KindOf(h Handle) Kind {
	s := t.slotChecked(h)
	if s == nil {
		return 0
	}
	st := s.state.Load()
	if st == stateFree {
		return 0
	}
	return Kind(st)
}

// Len returns the live handle count.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next - len(t.free)
}

// ---- collector-facing surface (callers run with mutators quiesced)

// Set rewrites the referent of a live handle; used by the collector to
// redirect handles after relocation and to null dead weak referents.
func (t *Table) Set(h Handle, target types.Addr) {
	if s := t.slotChecked(h); s != nil && s.state.Load() != stateFree {
		s.addr.Store(uint64(target))
	}
}

// ForEach visits every live handle in slot order.
func (t *Table) ForEach(fn func(h Handle, kind Kind, target types.Addr)) {
	t.mu.Lock()
	n := t.next
	t.mu.Unlock()
	chunks := *t.chunks.Load()
	for i := 0; i < n; i++ {
		s := &chunks[i/chunkSize][i%chunkSize]
		st := s.state.Load()
		if st == stateFree {
			continue
		}
		fn(Handle(i), Kind(st), types.Addr(s.addr.Load()))
	}
}

// ---- slot plumbing

// ensureChunkLocked extends the chunk list to cover slot index i. The
// list is copied and republished so concurrent readers never observe a
// partially appended slice.
func (t *Table) ensureChunkLocked(i int) error {
	cur := *t.chunks.Load()
	if i/chunkSize < len(cur) {
		return nil
	}
	grown := make([]*chunk, len(cur)+1)
	copy(grown, cur)
	grown[len(cur)] = new(chunk)
	t.chunks.Store(&grown)
	return nil
}

func (t *Table) slot(h Handle) *slot {
	chunks := *t.chunks.Load()
	return &chunks[int(h)/chunkSize][int(h)%chunkSize]
}

func (t *Table) slotChecked(h Handle) *slot {
	if h < 0 {
		return nil
	}
	chunks := *t.chunks.Load()
	ci := int(h) / chunkSize
	if ci >= len(chunks) {
		return nil
	}
	return &chunks[ci][int(h)%chunkSize]
}
