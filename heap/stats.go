package heap

// Stats is a point-in-time snapshot of heap counters and space usage.
type Stats struct {
	SlowPaths   uint64 // slow allocation entries
	Regions     uint64 // bump regions carved into contexts
	LargeAllocs uint64 // direct old-space placements
	Collections uint64 // collections triggered by the slow path
	Grows       uint64 // committed-range extensions

	OldUsed     uint64
	NurseryUsed uint64
	Committed   uint64
	Reserved    uint64
}

// Stats returns a consistent snapshot.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.stats
	s.OldUsed = uint64(h.oldCursor - Base)
	s.NurseryUsed = uint64(h.nurseryCursor - h.nurseryLo)
	s.Committed = uint64(h.committed)
	s.Reserved = uint64(h.reserved)
	return s
}
