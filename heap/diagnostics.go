package heap

import (
	"github.com/joshuapare/o1heap/internal/format"
)

// Diagnostics is a snapshot of the heap's incrementally maintained counters.
// Sizes are in bytes and include block headers.
type Diagnostics struct {
	// Capacity is the total size of all blocks, used or free.
	Capacity int `json:"capacity" yaml:"capacity"`

	// Allocated is the total size of used blocks.
	Allocated int `json:"allocated" yaml:"allocated"`

	// PeakAllocated is the high-water mark of Allocated.
	PeakAllocated int `json:"peak_allocated" yaml:"peak_allocated"`

	// PeakRequestSize is the largest size ever passed to Allocate, whether or
	// not it succeeded.
	PeakRequestSize int `json:"peak_request_size" yaml:"peak_request_size"`

	// OOMCount is the number of failed allocations.
	OOMCount uint64 `json:"oom_count" yaml:"oom_count"`
}

// Diagnostics returns the current counters. O(1).
func (h *Heap) Diagnostics() Diagnostics {
	return Diagnostics{
		Capacity:        int(h.field(format.InstanceCapacityField)),
		Allocated:       int(h.field(format.InstanceAllocatedField)),
		PeakAllocated:   int(h.field(format.InstancePeakAllocatedField)),
		PeakRequestSize: int(h.field(format.InstancePeakRequestField)),
		OOMCount:        uint64(h.field(format.InstanceOOMCountField)),
	}
}

// MaxAllocationSize returns the largest request that is currently certain to
// succeed. It is read from the head of the highest non-empty bin in O(1).
//
// With every allocation freed this is Capacity - HeaderSize: the arena is one
// block and the whole of it minus its header can be handed out.
func (h *Heap) MaxAllocationSize() int {
	m := h.mask()
	if m == 0 {
		return 0
	}
	top := format.Log2Floor(m)
	if h.rounding == RoundPow2 {
		return MinBlockSize<<top - HeaderSize
	}
	return h.blockSize(h.binHead(top)) - HeaderSize
}

func (h *Heap) capacity() int {
	return int(h.field(format.InstanceCapacityField))
}

func (h *Heap) noteAllocated(n int) {
	allocated := h.field(format.InstanceAllocatedField) + uint(n)
	h.putField(format.InstanceAllocatedField, allocated)
	if allocated > h.field(format.InstancePeakAllocatedField) {
		h.putField(format.InstancePeakAllocatedField, allocated)
	}
}

func (h *Heap) noteFreed(n int) {
	h.putField(format.InstanceAllocatedField, h.field(format.InstanceAllocatedField)-uint(n))
}

func (h *Heap) notePeakRequest(size int) {
	if size > 0 && uint(size) > h.field(format.InstancePeakRequestField) {
		h.putField(format.InstancePeakRequestField, uint(size))
	}
}

func (h *Heap) noteOOM(size int) {
	h.putField(format.InstanceOOMCountField, h.field(format.InstanceOOMCountField)+1)
	if debugAlloc {
		debugLogf("allocate(%d): out of memory", size)
		h.dumpBins()
	}
	if logAlloc {
		h.logger.Warn("allocation failed",
			"size", size,
			"max", h.MaxAllocationSize(),
			"oom_count", h.field(format.InstanceOOMCountField),
		)
	}
}
