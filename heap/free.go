package heap

import (
	"fmt"

	"github.com/joshuapare/o1heap/internal/buf"
	"github.com/joshuapare/o1heap/internal/format"
)

// Free returns an allocation to the heap. A nil slice is a no-op.
//
// p must be a slice returned by Allocate on this heap (reslicing the end is
// fine, reslicing the front is not) and must not have been freed already.
// Violations are undefined behaviour; with Config.Debug they panic.
func (h *Heap) Free(p []byte) {
	if p == nil {
		return
	}
	r := h.RefOf(p)
	if r == NilRef {
		if h.debug {
			panic("heap: free of slice outside the arena")
		}
		return
	}
	h.FreeRef(r)
}

// FreeRef is the arena-relative form of Free. NilRef is a no-op.
func (h *Heap) FreeRef(r Ref) {
	if r == NilRef {
		return
	}
	off := int(r) - HeaderSize
	if h.debug {
		h.assertLive(off)
	}

	size := h.blockSize(off)
	h.setHeader(off, size, false)
	h.noteFreed(size)
	h.stats.Frees++

	if right, ok := h.rightOf(off); ok && !h.isUsed(right) {
		h.stats.MergesRight++
		h.remove(right)
		size += h.blockSize(right)
		h.setHeader(off, size, false)
		h.retag(off)
	}

	if left, ok := h.leftOf(off); ok && !h.isUsed(left) {
		h.stats.MergesLeft++
		h.remove(left)
		size += h.blockSize(left)
		off = left
		h.setHeader(off, size, false)
		h.retag(off)
	}

	h.insert(off)

	if logAlloc {
		h.logger.Debug("free", "ref", int(r), "off", off, "block", size)
	}
}

// assertLive panics unless off is the header of a used block of this heap.
func (h *Heap) assertLive(off int) {
	if off < h.start || !format.IsAligned(uint(off-h.start)) {
		panic(fmt.Sprintf("heap: free of foreign pointer (offset 0x%X)", off))
	}
	if _, err := buf.CheckRange(h.start, h.end, off, HeaderSize); err != nil {
		panic(fmt.Sprintf("heap: free of foreign pointer: %v", err))
	}
	if !h.isUsed(off) {
		panic(fmt.Sprintf("heap: double free (offset 0x%X)", off))
	}
	if err := h.checkTags(off); err != nil {
		panic(fmt.Sprintf("heap: free of corrupted block: %v", err))
	}
}
