package heap

import "github.com/joshuapare/o1heap/internal/format"

// Block is a read-only view of one block header.
type Block struct {
	Offset   int  // block start (header), arena-relative
	Size     int  // total size including header
	Used     bool // allocated or free
	PrevSize int  // size of the left physical neighbour, 0 for the first block
	NextFree int  // next block in the same bin, 0 if none (free blocks only)
	PrevFree int  // previous block in the same bin, 0 if none (free blocks only)
}

// Ref returns the payload reference of the block.
func (b Block) Ref() Ref { return Ref(b.Offset + HeaderSize) }

// End returns the offset just past the block.
func (b Block) End() int { return b.Offset + b.Size }

// block decodes the header at off.
func (h *Heap) block(off int) Block {
	b := Block{
		Offset:   off,
		Size:     h.blockSize(off),
		Used:     h.isUsed(off),
		PrevSize: h.prevSize(off),
	}
	if !b.Used {
		b.NextFree = h.nextFree(off)
		b.PrevFree = h.prevFree(off)
	}
	return b
}

func (h *Heap) blockSize(off int) int {
	return int(format.ReadWord(h.arena, off+format.BlockSizeField) &^ format.UsedFlag)
}

func (h *Heap) isUsed(off int) bool {
	return format.ReadWord(h.arena, off+format.BlockSizeField)&format.UsedFlag != 0
}

// setHeader writes the size word. The boundary tag (prevSize) is untouched.
func (h *Heap) setHeader(off, size int, used bool) {
	w := uint(size)
	if used {
		w |= format.UsedFlag
	}
	format.PutWord(h.arena, off+format.BlockSizeField, w)
}

func (h *Heap) prevSize(off int) int {
	return format.ReadOffset(h.arena, off+format.BlockPrevSizeField)
}

func (h *Heap) setPrevSize(off, size int) {
	format.PutOffset(h.arena, off+format.BlockPrevSizeField, size)
}

func (h *Heap) nextFree(off int) int {
	return format.ReadOffset(h.arena, off+format.BlockNextFreeField)
}

func (h *Heap) setNextFree(off, next int) {
	format.PutOffset(h.arena, off+format.BlockNextFreeField, next)
}

func (h *Heap) prevFree(off int) int {
	return format.ReadOffset(h.arena, off+format.BlockPrevFreeField)
}

func (h *Heap) setPrevFree(off, prev int) {
	format.PutOffset(h.arena, off+format.BlockPrevFreeField, prev)
}

// rightOf returns the right physical neighbour of the block at off.
func (h *Heap) rightOf(off int) (int, bool) {
	r := off + h.blockSize(off)
	return r, r < h.end
}

// leftOf returns the left physical neighbour of the block at off, located
// through the boundary tag.
func (h *Heap) leftOf(off int) (int, bool) {
	ps := h.prevSize(off)
	return off - ps, ps != 0
}

// retag points the right neighbour's boundary tag at the block at off after
// the block changed size.
func (h *Heap) retag(off int) {
	if r, ok := h.rightOf(off); ok {
		h.setPrevSize(r, h.blockSize(off))
	}
}
