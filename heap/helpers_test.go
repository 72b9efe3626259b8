package heap

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/o1heap/arena"
	"github.com/joshuapare/o1heap/internal/format"
)

// ============================================================================
// Heap Creation Utilities
// ============================================================================

// newTestHeap initializes a heap over a fresh aligned arena of size bytes.
func newTestHeap(t testing.TB, size int, cfg *Config) *Heap {
	t.Helper()
	h, err := Init(arena.Aligned(size), cfg)
	require.NoError(t, err)
	requireInvariants(t, h)
	return h
}

// capacityFor returns the block capacity Init carves from an arena of size
// bytes with the default config.
func capacityFor(size int) int {
	return format.AlignDown(size - format.InstanceSize(MaxBins))
}

// blockFor returns the block size serving a GoodFit request of size bytes.
func blockFor(size int) int {
	return max(HeaderSize+format.AlignUp(size), MinBlockSize)
}

// ============================================================================
// Inspection Utilities
// ============================================================================

func requireInvariants(t testing.TB, h *Heap) {
	t.Helper()
	require.NoError(t, h.Verify())
}

// blockOf returns the header of the allocation p.
func blockOf(t testing.TB, h *Heap, p []byte) Block {
	t.Helper()
	r := h.RefOf(p)
	require.NotEqual(t, NilRef, r, "slice does not belong to the heap")
	return h.block(int(r) - HeaderSize)
}

// layout captures everything that defines the heap's structural state.
type layout struct {
	Mask      uint
	Heads     []int
	Blocks    []Block
	Allocated int
}

func snapshot(h *Heap) layout {
	l := layout{
		Mask:      h.NonEmptyBins(),
		Blocks:    slices.Collect(h.Blocks()),
		Allocated: h.Diagnostics().Allocated,
	}
	for i := range h.BinCount() {
		l.Heads = append(l.Heads, h.binHead(i))
	}
	return l
}

func countBlocks(h *Heap) (free, used int) {
	for b := range h.Blocks() {
		if b.Used {
			used++
		} else {
			free++
		}
	}
	return free, used
}
