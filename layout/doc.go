// Package layout models the per-type metadata the collector needs to find
// reference fields inside managed objects: the instance size, the optional
// array component size, and the ordered series of reference-holding words.
//
// Descriptors are built once through a Registry, validated at construction,
// and immutable afterwards; every instance of a type shares one descriptor
// for the process lifetime. The registry also owns the reserved free-space
// sentinel descriptor the collector stamps over reclaimed ranges. Callers
// must never allocate instances of the sentinel.
//
// Object binary layout (little-endian machine words):
//
//	word 0      descriptor id
//	word 1      element count            (array-like descriptors only)
//	payload     BaseSize bytes, then Count*ComponentSize element bytes
//
// Reference offsets are payload-relative: offset 0 names the first payload
// word, not the header.
package layout
