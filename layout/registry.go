package layout

import (
	"fmt"
	"sync"
)

// Registry assigns descriptor ids and resolves them back during scanning.
// Registration happens at type-registration time; lookups are cheap and
// safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	descs []*Descriptor
}

// NewRegistry creates a registry with the free-space sentinel already
// installed at FreeID.
func NewRegistry() *Registry {
	r := &Registry{
		// Index 0 stays nil so ID 0 never resolves.
		descs: make([]*Descriptor, 2, 16),
	}
	r.descs[FreeID] = &Descriptor{
		id:            FreeID,
		componentSize: 1, // byte-granular filler, no references
	}
	return r
}

// Describe validates and registers a layout.
//
// baseSize is the fixed payload size in bytes. componentSize, when non-zero,
// makes the layout array-like with that per-element size. refOffsets lists
// the byte offsets of reference-holding words, strictly increasing and
// word-aligned: relative to the payload for plain layouts, relative to each
// element for array-like layouts.
func (r *Registry) Describe(baseSize, componentSize uint64, refOffsets []uint64) (*Descriptor, error) {
	extent := baseSize
	if componentSize > 0 {
		extent = componentSize
	}
	series, err := compileSeries(extent, refOffsets)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	d := &Descriptor{
		id:            ID(len(r.descs)),
		baseSize:      baseSize,
		componentSize: componentSize,
		series:        series,
	}
	r.descs = append(r.descs, d)
	return d, nil
}

// ByID resolves a registered descriptor, or nil for ids that were never
// assigned (including 0).
func (r *Registry) ByID(id ID) *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.descs) {
		return nil
	}
	return r.descs[id]
}

// Lookup resolves a registered descriptor or reports ErrUnknownID.
func (r *Registry) Lookup(id ID) (*Descriptor, error) {
	if d := r.ByID(id); d != nil {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownID, id)
}

// FreeSentinel returns the reserved free-space descriptor.
func (r *Registry) FreeSentinel() *Descriptor {
	return r.ByID(FreeID)
}
