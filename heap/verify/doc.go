// Package verify provides offline validation of a heap's arena.
//
// # Overview
//
// The checks here re-derive every structural property of a heap from its
// read-only views (the physical block walk, the per-bin free lists and the
// diagnostics counters) without going through the allocator's own checker.
// They are used by tests and by o1heapctl after running workloads.
//
// Validation categories:
//   - Tiling: blocks cover the managed region exactly, with valid sizes and
//     boundary tags, and no two free blocks are adjacent
//   - Registry: the non-empty bitmask agrees with the bin lists
//   - FreeLists: each free block is linked exactly once, in the bin its size
//     maps to, with symmetric links
//   - Accounting: diagnostics agree with the walk
//
// # Quick Start
//
//	if err := verify.AllInvariants(h); err != nil {
//	    fmt.Printf("Validation failed: %v\n", err)
//	}
//
// # ValidationError
//
// All validation functions return *ValidationError on failure:
//
//	type ValidationError struct {
//	    Type    string         // category, e.g. "Tiling"
//	    Message string         // human-readable description
//	    Offset  int            // arena offset, -1 if not tied to a block
//	    Details map[string]any // additional context
//	}
//
// # Free-set Comparison
//
// Free blocks are tracked as roaring bitmaps of block indices (offset from the
// first block divided by the alignment unit). The walk's set and the lists'
// set must be equal; the difference names the first offending block.
package verify
