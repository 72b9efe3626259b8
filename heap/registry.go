package heap

import (
	"math/bits"

	"github.com/joshuapare/o1heap/internal/format"
)

// binIndex returns the bin holding free blocks of the given size:
// floor(log2(size / MinBlockSize)).
func binIndex(size int) int {
	return format.Log2Floor(uint(size) >> format.MinBlockShift)
}

// fitIndex returns the smallest bin whose every block is at least need bytes:
// ceil(log2(need / MinBlockSize)).
func fitIndex(need int) int {
	q := (uint(need) + MinBlockSize - 1) >> format.MinBlockShift
	return format.Log2Ceil(q)
}

func (h *Heap) field(off int) uint {
	return format.ReadWord(h.arena, off)
}

func (h *Heap) putField(off int, v uint) {
	format.PutWord(h.arena, off, v)
}

func (h *Heap) mask() uint {
	return h.field(format.InstanceMaskField)
}

func (h *Heap) binHead(i int) int {
	return int(h.field(format.BinField(i)))
}

func (h *Heap) setBinHead(i, off int) {
	h.putField(format.BinField(i), uint(off))
}

// insert pushes the free block at off onto the head of its bin and sets the
// bin's mask bit.
func (h *Heap) insert(off int) {
	i := binIndex(h.blockSize(off))
	head := h.binHead(i)

	h.setNextFree(off, head)
	h.setPrevFree(off, 0)
	if head != 0 {
		h.setPrevFree(head, off)
	}
	h.setBinHead(i, off)
	h.putField(format.InstanceMaskField, h.mask()|1<<i)

	if debugAlloc {
		debugLogf("insert off=0x%X size=%d bin=%d", off, h.blockSize(off), i)
	}
}

// remove unlinks the free block at off from its bin, clearing the mask bit
// when the bin becomes empty.
func (h *Heap) remove(off int) {
	i := binIndex(h.blockSize(off))
	next, prev := h.nextFree(off), h.prevFree(off)

	if prev != 0 {
		h.setNextFree(prev, next)
	} else {
		h.setBinHead(i, next)
	}
	if next != 0 {
		h.setPrevFree(next, prev)
	}
	if h.binHead(i) == 0 {
		h.putField(format.InstanceMaskField, h.mask()&^(1<<i))
	}

	h.setNextFree(off, 0)
	h.setPrevFree(off, 0)
}

// findBin returns the smallest non-empty bin at or above lo.
func (h *Heap) findBin(lo int) (int, bool) {
	if lo >= h.bins {
		return 0, false
	}
	m := h.mask() &^ (1<<uint(lo) - 1)
	if m == 0 {
		return 0, false
	}
	return bits.TrailingZeros(m), true
}

// NonEmptyBins returns the registry bitmask: bit i is set iff bin i holds at
// least one free block.
func (h *Heap) NonEmptyBins() uint {
	return h.mask()
}
