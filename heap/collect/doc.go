// Package collect implements the reference stop-the-world generational
// collector behind the heap's Collector hook.
//
// Minor collections root from strong handles and from card-marked old-space
// objects, promote every reachable nursery object into the old space, rewrite
// handle slots and reference fields through the forwarding table, clear dead
// weak handles, reset the card table, and re-zero the nursery. Full
// collections mark the whole heap from strong handles, slide the live
// old-space objects down (compaction), append the surviving nursery objects
// behind them, and stamp the reclaimed tail with the free-space sentinel so
// linear heap walks stay parseable.
//
// The collector runs with mutators quiesced. It owns the heap for the
// duration of Collect and never races the write barrier or the allocation
// fast path.
package collect
