package heap

import (
	"fmt"

	"github.com/joshuapare/o1heap/internal/buf"
	"github.com/joshuapare/o1heap/internal/format"
)

// Verify walks the arena and the registry and returns the first structural
// violation as an *InvariantError, or nil. It is O(n) in the number of blocks
// and intended for tests and tooling, never the allocation path.
//
// Checked:
//   - every mask bit is within the configured bins and agrees with its bin head
//   - blocks tile [start, end) exactly, are aligned and at least MinBlockSize
//   - every boundary tag matches the size of the left neighbour
//   - no two physically adjacent blocks are both free
//   - every free block is linked in exactly the bin its size maps to
//   - free-list links are symmetric and hold only free blocks
//   - the diagnostics counters agree with the block walk
func (h *Heap) Verify() error {
	if err := h.verifyMask(); err != nil {
		return err
	}
	free, used, err := h.verifyBlocks()
	if err != nil {
		return err
	}
	linked, err := h.verifyBins(free)
	if err != nil {
		return err
	}
	if linked != len(free) {
		return &InvariantError{
			Invariant: "bin-membership",
			Offset:    -1,
			Message:   fmt.Sprintf("%d free blocks in the arena, %d linked in bins", len(free), linked),
		}
	}
	return h.verifyDiagnostics(used)
}

// InvariantsHold reports whether Verify finds no violation.
func (h *Heap) InvariantsHold() bool {
	return h.Verify() == nil
}

func (h *Heap) verifyMask() error {
	m := h.mask()
	if h.bins < format.WordBits && m>>uint(h.bins) != 0 {
		return &InvariantError{
			Invariant: "mask",
			Offset:    -1,
			Message:   fmt.Sprintf("mask %#x has bits beyond %d bins", m, h.bins),
		}
	}
	for i := range h.bins {
		set := m&(1<<uint(i)) != 0
		head := h.binHead(i)
		if set != (head != 0) {
			return &InvariantError{
				Invariant: "mask",
				Offset:    -1,
				Message:   fmt.Sprintf("bin %d: mask bit %t, head 0x%X", i, set, head),
			}
		}
	}
	return nil
}

// verifyBlocks walks the physical sequence. It returns the set of free block
// offsets and the total size of used blocks.
func (h *Heap) verifyBlocks() (map[int]struct{}, int, error) {
	free := make(map[int]struct{})
	used := 0
	prevSize := 0
	prevFree := false
	limit := h.blockLimit()

	off := h.start
	for n := 0; off < h.end; n++ {
		if n >= limit {
			return nil, 0, &InvariantError{Invariant: "tiling", Offset: off, Message: "walk exceeds block limit"}
		}
		if err := h.checkBlock(off); err != nil {
			return nil, 0, err
		}
		b := h.block(off)
		if b.PrevSize != prevSize {
			return nil, 0, &InvariantError{
				Invariant: "boundary-tag",
				Offset:    off,
				Message:   fmt.Sprintf("prevSize %d, left neighbour is %d bytes", b.PrevSize, prevSize),
			}
		}
		if !b.Used && prevFree {
			return nil, 0, &InvariantError{Invariant: "coalescing", Offset: off, Message: "adjacent free blocks"}
		}
		if b.Used {
			used += b.Size
		} else {
			free[off] = struct{}{}
		}
		prevSize, prevFree = b.Size, !b.Used
		off = b.End()
	}
	if off != h.end {
		return nil, 0, &InvariantError{
			Invariant: "tiling",
			Offset:    off,
			Message:   fmt.Sprintf("walk ended at 0x%X, want 0x%X", off, h.end),
		}
	}
	return free, used, nil
}

// verifyBins walks every bin list and returns the number of blocks linked.
func (h *Heap) verifyBins(free map[int]struct{}) (int, error) {
	limit := h.blockLimit()
	seen := make(map[int]struct{}, len(free))
	linked := 0

	for i := range h.bins {
		prev := 0
		for off, n := h.binHead(i), 0; off != 0; n++ {
			if n >= limit {
				return 0, &InvariantError{Invariant: "link-symmetry", Offset: off, Message: fmt.Sprintf("bin %d: list does not terminate", i)}
			}
			if _, ok := free[off]; !ok {
				return 0, &InvariantError{Invariant: "bin-membership", Offset: off, Message: fmt.Sprintf("bin %d links a block that is not free", i)}
			}
			if _, dup := seen[off]; dup {
				return 0, &InvariantError{Invariant: "bin-membership", Offset: off, Message: fmt.Sprintf("bin %d: block linked twice", i)}
			}
			seen[off] = struct{}{}

			b := h.block(off)
			if got := binIndex(b.Size); got != i {
				return 0, &InvariantError{
					Invariant: "bin-membership",
					Offset:    off,
					Message:   fmt.Sprintf("size %d belongs in bin %d, found in bin %d", b.Size, got, i),
				}
			}
			if b.PrevFree != prev {
				return 0, &InvariantError{
					Invariant: "link-symmetry",
					Offset:    off,
					Message:   fmt.Sprintf("prevFree 0x%X, want 0x%X", b.PrevFree, prev),
				}
			}
			linked++
			prev, off = off, b.NextFree
		}
	}
	return linked, nil
}

func (h *Heap) verifyDiagnostics(used int) error {
	d := h.Diagnostics()
	switch {
	case d.Capacity != h.end-h.start:
		return &InvariantError{Invariant: "diagnostics", Offset: -1, Message: fmt.Sprintf("capacity %d, blocks cover %d", d.Capacity, h.end-h.start)}
	case d.Allocated != used:
		return &InvariantError{Invariant: "diagnostics", Offset: -1, Message: fmt.Sprintf("allocated %d, used blocks total %d", d.Allocated, used)}
	case d.PeakAllocated < d.Allocated || d.PeakAllocated > d.Capacity:
		return &InvariantError{Invariant: "diagnostics", Offset: -1, Message: fmt.Sprintf("peak %d outside [%d, %d]", d.PeakAllocated, d.Allocated, d.Capacity)}
	}
	return nil
}

// checkBlock validates the header at off in isolation: alignment, minimum
// size and bounds.
func (h *Heap) checkBlock(off int) error {
	if !format.IsAligned(uint(off)) {
		return &InvariantError{Invariant: "alignment", Offset: off, Message: "block offset not aligned"}
	}
	size := h.blockSize(off)
	if size < MinBlockSize || !format.IsAligned(uint(size)) {
		return &InvariantError{Invariant: "block-size", Offset: off, Message: fmt.Sprintf("size %d", size)}
	}
	if _, err := buf.CheckRange(h.start, h.end, off, size); err != nil {
		return &InvariantError{Invariant: "bounds", Offset: off, Message: err.Error()}
	}
	return nil
}

// checkTags validates the block at off against both physical neighbours.
func (h *Heap) checkTags(off int) error {
	if err := h.checkBlock(off); err != nil {
		return err
	}
	size := h.blockSize(off)
	if left, ok := h.leftOf(off); ok {
		if left < h.start || h.blockSize(left) != h.prevSize(off) {
			return &InvariantError{Invariant: "boundary-tag", Offset: off, Message: "left neighbour does not match prevSize"}
		}
	} else if off != h.start {
		return &InvariantError{Invariant: "boundary-tag", Offset: off, Message: "zero prevSize on an interior block"}
	}
	if right, ok := h.rightOf(off); ok && h.prevSize(right) != size {
		return &InvariantError{Invariant: "boundary-tag", Offset: off, Message: "right neighbour's prevSize does not match"}
	}
	return nil
}
