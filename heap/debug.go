package heap

import (
	"fmt"
	"os"
)

// debugAlloc enables verbose registry tracing on stderr. Compile-time switch.
const debugAlloc = false

// logAlloc routes per-operation allocate/free records and out-of-memory
// warnings to the heap's logger. Set O1HEAP_LOG_ALLOC to any value to enable.
var logAlloc = os.Getenv("O1HEAP_LOG_ALLOC") != ""

func debugLogf(format string, args ...any) {
	if debugAlloc {
		fmt.Fprintf(os.Stderr, "[O1HEAP] "+format+"\n", args...)
	}
}

// dumpBins writes the non-empty bins and their head blocks to stderr.
func (h *Heap) dumpBins() {
	if !debugAlloc {
		return
	}
	d := h.Diagnostics()
	debugLogf("mask=%#x capacity=%d allocated=%d max=%d", h.mask(), d.Capacity, d.Allocated, h.MaxAllocationSize())
	for i := range h.bins {
		n := 0
		for range h.FreeList(i) {
			n++
		}
		if n > 0 {
			debugLogf("  bin %2d: %d blocks, head=0x%X size=%d", i, n, h.binHead(i), h.blockSize(h.binHead(i)))
		}
	}
}
