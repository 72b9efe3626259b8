package heap

import "iter"

// Blocks iterates the physical block sequence in address order. Iteration
// stops early at a header whose size would not advance the walk, so a
// corrupted arena cannot loop forever.
func (h *Heap) Blocks() iter.Seq[Block] {
	return func(yield func(Block) bool) {
		for off := h.start; off < h.end; {
			b := h.block(off)
			if !yield(b) || b.Size < MinBlockSize {
				return
			}
			off = b.End()
		}
	}
}

// FreeList iterates the free blocks of bin i from head to tail. Iteration is
// bounded by the number of blocks the arena can hold.
func (h *Heap) FreeList(i int) iter.Seq[Block] {
	return func(yield func(Block) bool) {
		if i < 0 || i >= h.bins {
			return
		}
		limit := h.blockLimit()
		for off, n := h.binHead(i), 0; off != 0 && n < limit; n++ {
			b := h.block(off)
			if !yield(b) {
				return
			}
			off = b.NextFree
		}
	}
}

// blockLimit is the largest number of blocks the arena can contain.
func (h *Heap) blockLimit() int {
	return (h.end-h.start)/MinBlockSize + 1
}
