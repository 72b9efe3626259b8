// Package format houses the in-arena layout of the allocator: the alignment
// unit, the block header, and the instance region at the start of every
// arena. Everything is addressed by arena-relative byte offsets so the only
// memory-safety boundary is the arena slice itself.
package format

import "math/bits"

const (
	// WordSize is the size in bytes of one header word (a machine word).
	WordSize = bits.UintSize / 8

	// WordBits is the width of a header word. The non-empty bin mask is a
	// single word, so it also bounds the number of bins.
	WordBits = bits.UintSize

	// Alignment is the allocator's alignment unit: four machine words.
	// 16 bytes on 32-bit platforms, 32 bytes on 64-bit platforms.
	// Every block size, block offset and payload address is a multiple of it.
	Alignment = 4 * WordSize

	// AlignmentMask is the bitmask used for aligning to Alignment (Alignment - 1).
	AlignmentMask = Alignment - 1

	// HeaderSize is the number of bytes used by the block header preceding
	// every payload. It is exactly one alignment unit so payloads stay aligned.
	HeaderSize = Alignment

	// MinBlockSize is the smallest block the allocator creates: one header
	// plus one alignment unit of payload. Leftovers smaller than this are
	// absorbed instead of split off.
	MinBlockSize = 2 * Alignment

	// MinBlockShift is log2(MinBlockSize).
	MinBlockShift = 4 + WordSize/4 // 6 on 64-bit (64 B), 5 on 32-bit (32 B)

	// MaxBins is the largest supported bin count (one bit per bin in the mask).
	MaxBins = WordBits
)

// Block header field offsets, relative to the block start.
//
// Layout (one word each, native endian):
//
//	0w  size | UsedFlag   total block size including header; bit 0 is the used flag
//	1w  prevSize          size of the left physical neighbour, 0 for the first block
//	2w  nextFree          offset of the next block in the same bin, 0 if none
//	3w  prevFree          offset of the previous block in the same bin, 0 if none
//
// The right physical neighbour always starts at off+size. The left one starts
// at off-prevSize, which is what makes both coalescing directions O(1).
const (
	BlockSizeField     = 0 * WordSize
	BlockPrevSizeField = 1 * WordSize
	BlockNextFreeField = 2 * WordSize
	BlockPrevFreeField = 3 * WordSize
)

// UsedFlag marks a block as allocated. Block sizes are multiples of
// Alignment, so bit 0 of the size word is always available.
const UsedFlag uint = 1

// Instance region field offsets, relative to the arena start.
//
// The instance region holds the long-lived allocator state so that the whole
// heap lives inside the caller's arena:
//
//	0w  mask            bit i set iff bin i is non-empty
//	1w  capacity        total bytes covered by blocks
//	2w  allocated       bytes in used blocks (headers included)
//	3w  peakAllocated   high-water mark of allocated
//	4w  peakRequest     largest size ever passed to Allocate
//	5w  oomCount        number of failed allocations
//	6w  bins[n]         head block offset of each bin, 0 if empty
const (
	InstanceMaskField = iota * WordSize
	InstanceCapacityField
	InstanceAllocatedField
	InstancePeakAllocatedField
	InstancePeakRequestField
	InstanceOOMCountField
	InstanceBinsField
)

// InstanceSize returns the size of the instance region for the given bin
// count, padded to Alignment so the first block starts aligned.
func InstanceSize(bins int) int {
	return AlignUp(InstanceBinsField + bins*WordSize)
}

// BinField returns the offset of bin i's head word in the instance region.
func BinField(i int) int {
	return InstanceBinsField + i*WordSize
}
