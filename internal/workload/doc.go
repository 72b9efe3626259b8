// Package workload produces and replays allocate/free sequences against a
// heap. It backs the o1heapctl simulate, replay, stress and layout commands.
//
// A workload is a list of Ops naming allocations by an integer id. Ops come
// from a deterministic generator driven by a Profile (optionally loaded from
// TOML), or from a text trace:
//
//	# comment
//	alloc 1 128
//	alloc 2 4000
//	free 1
//
// Run applies the ops to a heap, checks payload integrity and the heap's
// invariants along the way, and summarizes the outcome in a Report.
package workload
