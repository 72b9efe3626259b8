// Package o1heap adapts the constant-time heap to the shape a hosting runtime
// expects from a general-purpose allocator.
//
// # Overview
//
// GlobalAlloc wraps one heap.Heap behind an alignment-aware Layout API and an
// Allocate/Reallocate/Free interface. It holds no allocation logic of its own:
// every request is forwarded to the heap, and out-of-memory is reported as a
// nil slice exactly as the heap reports it.
//
// A process-wide instance is available through Global. It must be
// initialized once, before the first allocation:
//
//	mem, cleanup, err := arena.Map(1 << 20)
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
//	if err := o1heap.InitGlobal(mem, nil); err != nil {
//	    return err // errors.Is(err, heap.ErrInit)
//	}
//
//	buf := o1heap.Global().Alloc(o1heap.Layout{Size: 128, Align: 16})
//	defer o1heap.Global().Dealloc(buf, o1heap.Layout{Size: 128, Align: 16})
//
// # Alignment
//
// Every payload is aligned to heap.Alignment. Layouts asking for more are
// rejected with a nil result and a logged warning; the heap is not touched.
//
// # Concurrency
//
// Unlike heap.Heap, a GlobalAlloc is safe for concurrent use: calls are
// serialized with a mutex. The per-call cost stays bounded, but callers in
// hard-real-time paths should own their heap directly.
package o1heap
