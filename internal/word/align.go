package word

// AlignUp returns n rounded up to the next word boundary.
//
// Example (64-bit):
//
//	AlignUp(1)  = 8
//	AlignUp(8)  = 8
//	AlignUp(9)  = 16
func AlignUp(n uint64) uint64 {
	return (n + Mask) &^ uint64(Mask)
}

// Aligned reports whether n sits on a word boundary.
func Aligned(n uint64) bool {
	return n&Mask == 0
}
