package format

import "math/bits"

// Alignment and power-of-two utilities for the arena layout.

// AlignUp returns n aligned up to the next Alignment boundary.
//
// Example (64-bit, Alignment = 32):
//
//	AlignUp(1)  = 32
//	AlignUp(32) = 32
//	AlignUp(33) = 64
func AlignUp(n int) int {
	return (n + AlignmentMask) &^ AlignmentMask
}

// AlignDown returns n aligned down to the previous Alignment boundary.
func AlignDown(n int) int {
	return n &^ AlignmentMask
}

// IsAligned reports whether n is a multiple of Alignment.
func IsAligned(n uint) bool {
	return n&AlignmentMask == 0
}

// IsPow2 reports whether x is a power of two. Zero is not.
func IsPow2(x uint) bool {
	return x != 0 && x&(x-1) == 0
}

// Log2Floor returns floor(log2(x)). x must be non-zero.
func Log2Floor(x uint) int {
	return bits.Len(x) - 1
}

// Log2Ceil returns ceil(log2(x)). x must be non-zero.
func Log2Ceil(x uint) int {
	return bits.Len(x - 1)
}

// Pow2Ceil returns the smallest power of two >= x, or 0 when that does not
// fit in a uint. x must be non-zero.
func Pow2Ceil(x uint) uint {
	shift := Log2Ceil(x)
	if shift >= WordBits {
		return 0
	}
	return 1 << shift
}
