package collect

// Stats counts collector activity. Collections run stop-the-world, so the
// counters need no synchronization; read them between collections.
type Stats struct {
	Minor         uint64 // minor collections completed
	Full          uint64 // full collections completed
	Promoted      uint64 // nursery objects copied into the old space
	PromotedBytes uint64 // bytes those copies occupy
	FreedBytes    uint64 // old-space bytes reclaimed by compaction
	WeaksCleared  uint64 // weak handles cleared because the referent died
}

// Stats returns a snapshot of the collector's counters.
func (c *Collector) Stats() Stats {
	return c.stats
}
