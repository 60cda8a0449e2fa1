// Package handle provides the indirection layer for references that must
// survive independently of stack roots. A handle is a stable integer
// index into a chunked slot table; relocation only rewrites slot
// contents, never handle identities, so handles held by application code
// stay valid across any number of collections.
//
// Strong handles contribute their referent as a root during enumeration.
// Weak handles never do, and are nulled by the collector when the
// referent becomes unreachable; this is the only way object liveness is
// observable from outside the collector.
//
// Create and Destroy take a table-wide lock; Read is lock-free.
package handle
