package heap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/o1heap/internal/format"
)

func requireViolation(t *testing.T, h *Heap, invariant string) *InvariantError {
	t.Helper()
	err := h.Verify()
	require.Error(t, err)
	var ie *InvariantError
	require.True(t, errors.As(err, &ie), "want *InvariantError, got %T", err)
	assert.Equal(t, invariant, ie.Invariant, ie.Error())
	assert.False(t, h.InvariantsHold())
	return ie
}

func TestVerify_DetectsCorruption(t *testing.T) {
	tests := []struct {
		name      string
		corrupt   func(h *Heap, a, b []byte)
		invariant string
	}{
		{
			name: "mask bit beyond bins",
			corrupt: func(h *Heap, _, _ []byte) {
				h.putField(format.InstanceMaskField, h.mask()|1<<uint(h.BinCount()))
			},
			invariant: "mask",
		},
		{
			name: "mask bit without head",
			corrupt: func(h *Heap, _, _ []byte) {
				h.putField(format.InstanceMaskField, h.mask()|1)
			},
			invariant: "mask",
		},
		{
			name: "stale boundary tag",
			corrupt: func(h *Heap, _, b []byte) {
				off := int(h.RefOf(b)) - HeaderSize
				h.setPrevSize(off, h.prevSize(off)+Alignment)
			},
			invariant: "boundary-tag",
		},
		{
			name: "misaligned size",
			corrupt: func(h *Heap, a, _ []byte) {
				off := int(h.RefOf(a)) - HeaderSize
				h.setHeader(off, h.blockSize(off)+2, true)
			},
			invariant: "block-size",
		},
		{
			name: "block past the end",
			corrupt: func(h *Heap, _, b []byte) {
				off := int(h.RefOf(b)) - HeaderSize
				h.setHeader(off, h.capacity(), true)
			},
			invariant: "bounds",
		},
		{
			name: "adjacent free blocks",
			corrupt: func(h *Heap, a, _ []byte) {
				// b was freed into the tail; flipping a leaves two free neighbours.
				off := int(h.RefOf(a)) - HeaderSize
				h.setHeader(off, h.blockSize(off), false)
			},
			invariant: "coalescing",
		},
		{
			name: "used block in a free list",
			corrupt: func(h *Heap, _, _ []byte) {
				_, end := h.Bounds()
				var tail Block
				for blk := range h.Blocks() {
					if blk.End() == end {
						tail = blk
					}
				}
				h.setHeader(tail.Offset, tail.Size, true)
			},
			invariant: "bin-membership",
		},
		{
			name: "broken back link",
			corrupt: func(h *Heap, _, _ []byte) {
				_, end := h.Bounds()
				for blk := range h.Blocks() {
					if blk.End() == end {
						h.setPrevFree(blk.Offset, Alignment)
					}
				}
			},
			invariant: "link-symmetry",
		},
		{
			name: "allocated counter drift",
			corrupt: func(h *Heap, _, _ []byte) {
				h.noteAllocated(MinBlockSize)
			},
			invariant: "diagnostics",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHeap(t, 4096, &Config{Bins: 16})
			a := h.Allocate(100)
			b := h.Allocate(100)
			require.NotNil(t, a)
			require.NotNil(t, b)
			if tt.invariant == "coalescing" {
				h.Free(b)
			}
			requireInvariants(t, h)

			tt.corrupt(h, a, b)
			requireViolation(t, h, tt.invariant)
		})
	}
}

func TestVerify_UnlinkedFreeBlock(t *testing.T) {
	h := newTestHeap(t, 4096, nil)
	a := h.Allocate(100)
	guard := h.Allocate(100)
	require.NotNil(t, guard)

	// Mark a free without linking it anywhere.
	off := int(h.RefOf(a)) - HeaderSize
	h.setHeader(off, h.blockSize(off), false)
	h.noteFreed(h.blockSize(off))

	ie := requireViolation(t, h, "bin-membership")
	assert.Equal(t, -1, ie.Offset)
	assert.Contains(t, ie.Error(), "linked in bins")
}

func TestInvariantError_Format(t *testing.T) {
	e := &InvariantError{Invariant: "boundary-tag", Offset: 0x240, Message: "mismatch"}
	assert.Equal(t, "heap: boundary-tag at offset 0x240: mismatch", e.Error())

	e = &InvariantError{Invariant: "mask", Offset: -1, Message: "bad"}
	assert.Equal(t, "heap: mask: bad", e.Error())
}
