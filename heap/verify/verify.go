package verify

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/RoaringBitmap/roaring"

	"github.com/joshuapare/o1heap/heap"
)

// ValidationError describes one failed check.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]any
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// AllInvariants validates all heap invariants in one call.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(h *heap.Heap) error {
	if err := Tiling(h); err != nil {
		return err
	}
	if err := Registry(h); err != nil {
		return err
	}
	if err := FreeLists(h); err != nil {
		return err
	}
	return Accounting(h)
}

// Tiling validates the physical block sequence.
func Tiling(h *heap.Heap) error {
	start, end := h.Bounds()
	pos, prevSize := start, 0
	prevFree := false
	limit := (end-start)/heap.MinBlockSize + 1

	n := 0
	for b := range h.Blocks() {
		if n++; n > limit {
			return &ValidationError{Type: "Tiling", Message: "more blocks than the arena can hold", Offset: b.Offset}
		}
		if b.Offset != pos {
			return &ValidationError{
				Type:    "Tiling",
				Message: fmt.Sprintf("block at 0x%X, expected 0x%X", b.Offset, pos),
				Offset:  b.Offset,
			}
		}
		if b.Size < heap.MinBlockSize || b.Size%heap.Alignment != 0 {
			return &ValidationError{
				Type:    "Tiling",
				Message: fmt.Sprintf("invalid block size %d (must be >= %d and %d-aligned)", b.Size, heap.MinBlockSize, heap.Alignment),
				Offset:  b.Offset,
			}
		}
		if b.End() > end {
			return &ValidationError{
				Type:    "Tiling",
				Message: fmt.Sprintf("block extends beyond arena: end=0x%X, limit=0x%X", b.End(), end),
				Offset:  b.Offset,
			}
		}
		if b.PrevSize != prevSize {
			return &ValidationError{
				Type:    "Tiling",
				Message: fmt.Sprintf("boundary tag mismatch: prevSize=%d, left neighbour=%d", b.PrevSize, prevSize),
				Offset:  b.Offset,
				Details: map[string]any{"prev_size": b.PrevSize, "left_size": prevSize},
			}
		}
		if !b.Used && prevFree {
			return &ValidationError{Type: "Tiling", Message: "uncoalesced free neighbours", Offset: b.Offset}
		}
		pos, prevSize, prevFree = b.End(), b.Size, !b.Used
	}

	if pos != end {
		return &ValidationError{
			Type:    "Tiling",
			Message: fmt.Sprintf("blocks end at 0x%X, arena ends at 0x%X", pos, end),
			Offset:  -1,
		}
	}
	return nil
}

// Registry validates the non-empty bitmask against the bin lists.
func Registry(h *heap.Heap) error {
	mask := h.NonEmptyBins()
	if h.BinCount() < bits.UintSize && mask>>uint(h.BinCount()) != 0 {
		return &ValidationError{
			Type:    "Registry",
			Message: fmt.Sprintf("mask 0x%X has bits beyond %d bins", mask, h.BinCount()),
			Offset:  -1,
		}
	}
	for i := range h.BinCount() {
		nonEmpty := false
		for range h.FreeList(i) {
			nonEmpty = true
			break
		}
		if set := mask&(1<<uint(i)) != 0; set != nonEmpty {
			return &ValidationError{
				Type:    "Registry",
				Message: fmt.Sprintf("bin %d: mask bit %t, list non-empty %t", i, set, nonEmpty),
				Offset:  -1,
				Details: map[string]any{"bin": i, "mask": mask},
			}
		}
	}
	return nil
}

// FreeLists validates bin membership and link symmetry, and that the set of
// free blocks reachable from the bins equals the set found by the walk.
func FreeLists(h *heap.Heap) error {
	walked, err := FreeSet(h)
	if err != nil {
		return err
	}
	start, _ := h.Bounds()
	linked := roaring.New()

	for i := range h.BinCount() {
		prev := 0
		for b := range h.FreeList(i) {
			idx, err := index(start, b.Offset)
			if err != nil {
				return err
			}
			if !linked.CheckedAdd(idx) {
				return &ValidationError{
					Type:    "FreeLists",
					Message: fmt.Sprintf("block linked twice (bin %d)", i),
					Offset:  b.Offset,
				}
			}
			if b.Used {
				return &ValidationError{Type: "FreeLists", Message: fmt.Sprintf("used block in bin %d", i), Offset: b.Offset}
			}
			if want := binOf(b.Size); want != i {
				return &ValidationError{
					Type:    "FreeLists",
					Message: fmt.Sprintf("block of %d bytes in bin %d, belongs in bin %d", b.Size, i, want),
					Offset:  b.Offset,
					Details: map[string]any{"size": b.Size, "bin": i, "want_bin": want},
				}
			}
			if b.PrevFree != prev {
				return &ValidationError{
					Type:    "FreeLists",
					Message: fmt.Sprintf("asymmetric link: prevFree=0x%X, expected 0x%X", b.PrevFree, prev),
					Offset:  b.Offset,
				}
			}
			prev = b.Offset
		}
	}

	if missing := roaring.AndNot(walked, linked); !missing.IsEmpty() {
		return &ValidationError{
			Type:    "FreeLists",
			Message: fmt.Sprintf("%d free blocks not linked in any bin", missing.GetCardinality()),
			Offset:  offset(start, missing.Minimum()),
		}
	}
	if stray := roaring.AndNot(linked, walked); !stray.IsEmpty() {
		return &ValidationError{
			Type:    "FreeLists",
			Message: fmt.Sprintf("%d linked blocks are not free blocks of the arena", stray.GetCardinality()),
			Offset:  offset(start, stray.Minimum()),
		}
	}
	return nil
}

// Accounting validates the diagnostics counters against the walk.
func Accounting(h *heap.Heap) error {
	start, end := h.Bounds()
	d := h.Diagnostics()

	used := 0
	for b := range h.Blocks() {
		if b.Used {
			used += b.Size
		}
	}

	switch {
	case d.Capacity != end-start:
		return &ValidationError{
			Type:    "Accounting",
			Message: fmt.Sprintf("capacity=%d, blocks cover %d", d.Capacity, end-start),
			Offset:  -1,
		}
	case d.Allocated != used:
		return &ValidationError{
			Type:    "Accounting",
			Message: fmt.Sprintf("allocated=%d, used blocks total %d", d.Allocated, used),
			Offset:  -1,
			Details: map[string]any{"allocated": d.Allocated, "used": used},
		}
	case d.PeakAllocated < d.Allocated || d.PeakAllocated > d.Capacity:
		return &ValidationError{
			Type:    "Accounting",
			Message: fmt.Sprintf("peak allocated %d outside [%d, %d]", d.PeakAllocated, d.Allocated, d.Capacity),
			Offset:  -1,
		}
	}
	return nil
}

// FreeSet returns the indices of all free blocks found by the physical walk.
// A block's index is its distance from the first block in alignment units.
func FreeSet(h *heap.Heap) (*roaring.Bitmap, error) {
	start, _ := h.Bounds()
	set := roaring.New()
	for b := range h.Blocks() {
		if b.Used {
			continue
		}
		idx, err := index(start, b.Offset)
		if err != nil {
			return nil, err
		}
		set.Add(idx)
	}
	return set, nil
}

func index(start, off int) (uint32, error) {
	idx := (off - start) / heap.Alignment
	if off < start || uint64(idx) > math.MaxUint32 {
		return 0, &ValidationError{
			Type:    "FreeLists",
			Message: "block offset outside the indexable range",
			Offset:  off,
		}
	}
	return uint32(idx), nil
}

func offset(start int, idx uint32) int {
	return start + int(idx)*heap.Alignment
}

// binOf is floor(log2(size / MinBlockSize)).
func binOf(size int) int {
	return bits.Len(uint(size/heap.MinBlockSize)) - 1
}
