// Package buf contains the bounds checks applied at the arena edge. All block
// and payload addressing inside the allocator is by arena-relative offset, so
// these helpers are the single place where an offset is trusted or rejected.
package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// CheckRange validates that the n-byte range starting at off lies within
// [lo, limit). It returns the exclusive end of the range, or an error naming
// the specific failure (negative input, overflow, or out of bounds).
//
//	end, err := buf.CheckRange(instanceEnd, arenaLen, blockOff, blockSize)
//	if err != nil {
//	    return fmt.Errorf("block: %w", err)
//	}
func CheckRange(lo, limit, off, n int) (int, error) {
	if off < lo {
		return 0, fmt.Errorf("offset 0x%X below 0x%X", off, lo)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative length: %d", n)
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok {
		return 0, fmt.Errorf("overflow: offset=0x%X + length=%d", off, n)
	}
	if end > limit {
		return 0, fmt.Errorf("bounds: end=0x%X > limit=0x%X", end, limit)
	}
	return end, nil
}
