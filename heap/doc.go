// Package heap implements a constant-time, deterministic allocator over a
// single caller-supplied arena.
//
// # Overview
//
// The allocator manages one fixed-size byte region and services Allocate and
// Free requests against it in O(1) worst-case time. Cost is bounded by the
// fixed bin count, never by the number of live allocations or by history,
// which makes it suitable for hard-real-time code paths.
//
// All allocator state lives inside the arena itself:
//
//	arena[0 : instance]           instance region (bin heads, bitmask, diagnostics)
//	arena[instance : instance+c]  blocks, each with a fixed header before its payload
//
// Blocks are addressed by arena-relative offsets, so the only memory-safety
// boundary is the arena slice.
//
// # Usage Example
//
//	mem := arena.Aligned(64 << 10)
//	h, err := heap.Init(mem, nil)
//	if err != nil {
//	    return err // errors.Is(err, heap.ErrInit)
//	}
//
//	buf := h.Allocate(256)
//	if buf == nil {
//	    // out of memory: an ordinary outcome, nothing to clean up
//	}
//	copy(buf, payload)
//	h.Free(buf)
//
// # Bins
//
// Free blocks are kept in segregated, doubly-linked lists. Bin i holds blocks
// whose size falls in [MinBlockSize<<i, MinBlockSize<<(i+1)). A single-word
// bitmask records which bins are non-empty, so finding the smallest usable bin
// is one find-first-set instruction:
//
//	Bin 0:   64 -  127 bytes   (64-bit platform)
//	Bin 1:  128 -  255 bytes
//	Bin 2:  256 -  511 bytes
//	...
//
// # Allocation and Deallocation
//
// Allocate takes the head of the request's own bin when it is large enough,
// otherwise the head of the smallest bin guaranteed to fit. It splits off the
// remainder when that can host a block and returns the payload. Free marks the
// block free, merges it with free physical neighbours (found in O(1) through
// the boundary tags in each header), and pushes the result onto its bin.
// Adjacent free blocks never coexist.
//
// # Rounding
//
// The size-rounding policy is configurable (see Config). RoundGoodFit keeps
// internal waste low; RoundPow2 rounds every request up to a power of two,
// which trades waste for a tighter worst-case fragmentation bound.
//
// # Thread Safety
//
// A Heap is not safe for concurrent use and performs no locking, so that its
// timing stays deterministic. Callers that share one arena between goroutines
// must serialize access externally.
//
// # Related Packages
//
//   - github.com/joshuapare/o1heap/heap/verify: Offline whole-arena verification
//   - github.com/joshuapare/o1heap/arena: Aligned backing memory for arenas
//   - github.com/joshuapare/o1heap/pkg/o1heap: Process-wide allocator adapter
package heap
