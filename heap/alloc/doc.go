// Package alloc implements the allocation fast path: thread-owned bump
// contexts carved out of the heap's ephemeral range, advanced with two
// compares and one add per allocation.
//
// A Context is owned exclusively by one mutator thread, so the fast path
// needs no synchronization. When a request does not fit the current region
// the fast path leaves the context untouched and defers to the backend's
// slow allocation entry point exactly once; the backend may carve a fresh
// region into the context, place the object directly in the old space, or
// trigger a collection before retrying.
//
// The allocator writes the descriptor id into the object header before
// returning. Payload bytes are whatever the backing region held; the heap
// guarantees regions are zero-filled when carved, the fast path itself
// never writes payload bytes.
package alloc
