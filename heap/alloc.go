package heap

import (
	"math"

	"github.com/joshuapare/o1heap/internal/format"
)

// Allocate returns a payload of len size, aligned to Alignment and disjoint
// from every other live allocation. Its capacity is the block's full payload.
//
// Nil is returned when no free block fits. Out-of-memory is an ordinary
// outcome: it is counted in Diagnostics and leaves all existing allocations
// and registry state unchanged. A zero size yields an empty non-nil slice
// backed by a minimal block; it must be freed like any other allocation.
func (h *Heap) Allocate(size int) []byte {
	r, ok := h.AllocateRef(size)
	if !ok {
		return nil
	}
	return h.Payload(r)[:size]
}

// AllocateRef is the arena-relative form of Allocate.
func (h *Heap) AllocateRef(size int) (Ref, bool) {
	h.notePeakRequest(size)

	off, ok := h.allocate(size)
	if !ok {
		h.noteOOM(size)
		return NilRef, false
	}
	return Ref(off + HeaderSize), true
}

func (h *Heap) allocate(size int) (int, bool) {
	capacity := h.capacity()
	if size < 0 || size > capacity-HeaderSize {
		return 0, false
	}
	need := h.required(size)
	if need == 0 || need > capacity {
		return 0, false
	}

	off, ok := h.take(need)
	if !ok {
		return 0, false
	}
	h.carve(off, need)

	h.stats.Allocs++
	h.noteAllocated(h.blockSize(off))

	if logAlloc {
		h.logger.Debug("allocate", "size", size, "need", need, "off", off, "block", h.blockSize(off))
	}
	return off, true
}

// required returns the block size serving a request of size bytes, or 0 when
// it is not representable.
func (h *Heap) required(size int) int {
	need := max(HeaderSize+format.AlignUp(size), MinBlockSize)
	if h.rounding == RoundPow2 {
		p := format.Pow2Ceil(uint(need))
		if p == 0 || p > math.MaxInt {
			return 0
		}
		need = int(p)
	}
	return need
}

// take removes and returns a free block of at least need bytes.
//
// The head of need's own bin is checked first: blocks there may or may not
// fit, and when the head does it is the tightest candidate available in O(1).
// Otherwise the search starts at the smallest bin whose every block fits, so
// the head of the first non-empty bin found by the bitmask is always usable.
// Under RoundPow2 both bins coincide and only the bitmask search runs.
func (h *Heap) take(need int) (int, bool) {
	lo := fitIndex(need)
	if i := binIndex(need); i < lo && i < h.bins && h.mask()&(1<<uint(i)) != 0 {
		if off := h.binHead(i); h.blockSize(off) >= need {
			h.stats.FloorHits++
			h.remove(off)
			return off, true
		}
	}

	if i, ok := h.findBin(lo); ok {
		off := h.binHead(i)
		h.remove(off)
		return off, true
	}
	return 0, false
}

// carve marks the block at off used, splitting off the tail as a new free
// block when the leftover can host one. Smaller leftovers are absorbed.
func (h *Heap) carve(off, need int) {
	size := h.blockSize(off)
	rest := size - need
	if rest < MinBlockSize {
		h.stats.Absorbed++
		h.setHeader(off, size, true)
		return
	}

	h.stats.Splits++
	tail := off + need
	h.setHeader(off, need, true)
	h.setHeader(tail, rest, false)
	h.setPrevSize(tail, need)
	h.retag(tail)
	h.insert(tail)
}
