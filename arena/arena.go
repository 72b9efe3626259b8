// Package arena provides backing memory for heap instances: aligned Go slices
// for tests and tools, and anonymous memory mappings outside the Go heap.
//
// The allocator never obtains memory on its own. Whatever region is handed to
// heap.Init must start on a heap.Alignment boundary, which plain make([]byte)
// does not promise for every size class; these helpers do.
package arena

import (
	"fmt"
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"

	"github.com/joshuapare/o1heap/internal/format"
)

// Aligned returns a size-byte slice whose first byte is aligned to
// format.Alignment. The contents are not zeroed; heap.Init writes every
// header it relies on.
func Aligned(size int) []byte {
	if size <= 0 {
		return nil
	}
	raw := dirtmake.Bytes(size+format.AlignmentMask, size+format.AlignmentMask)
	return raw[pad(raw):][:size:size]
}

// Zeroed is Aligned with the contents cleared.
func Zeroed(size int) []byte {
	b := Aligned(size)
	clear(b)
	return b
}

// Misaligned returns a size-byte slice whose base is offset from an alignment
// boundary by skew bytes (1..Alignment-1). Used to exercise the rejection path
// of heap.Init.
func Misaligned(size, skew int) ([]byte, error) {
	if skew <= 0 || skew >= format.Alignment {
		return nil, fmt.Errorf("arena: skew %d out of range 1..%d", skew, format.AlignmentMask)
	}
	raw := dirtmake.Bytes(size+format.Alignment+skew, size+format.Alignment+skew)
	start := pad(raw) + skew
	return raw[start : start+size : start+size], nil
}

// IsAligned reports whether b's base address is aligned to format.Alignment.
func IsAligned(b []byte) bool {
	if cap(b) == 0 {
		return false
	}
	return format.IsAligned(uint(uintptr(unsafe.Pointer(unsafe.SliceData(b)))))
}

// pad returns the number of bytes to skip so that raw[pad:] is aligned.
func pad(raw []byte) int {
	mis := int(uintptr(unsafe.Pointer(unsafe.SliceData(raw))) & format.AlignmentMask)
	if mis == 0 {
		return 0
	}
	return format.Alignment - mis
}
