// Package types defines the small, copyable identifiers shared by every
// package in this module: managed-heap addresses, collection generations,
// and allocation flags.
//
// Addresses are byte offsets into the heap's single reserved mapping rather
// than raw machine pointers. Address 0 is the nil reference, and ordering
// comparisons between addresses are meaningful, so the semantics of a
// pointer-based runtime carry over while all offset arithmetic stays inside
// a few audited modules.
//
// This package has no dependencies beyond the standard library.
package types
