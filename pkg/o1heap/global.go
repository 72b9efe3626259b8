package o1heap

import (
	"log/slog"
	"sync"

	"github.com/joshuapare/o1heap/heap"
)

// Allocator is the allocation interface GlobalAlloc exposes to code that is
// agnostic of layouts.
type Allocator interface {
	Allocate(size int) []byte
	Reallocate(size int, b []byte) []byte
	Free(b []byte)
}

// GlobalAlloc is a heap-backed allocator with a one-time initialization.
// The zero value is uninitialized; every allocation before Init returns nil.
type GlobalAlloc struct {
	mu     sync.Mutex
	h      *heap.Heap
	logger *slog.Logger
}

var _ Allocator = (*GlobalAlloc)(nil)

var global GlobalAlloc

// Global returns the process-wide allocator.
func Global() *GlobalAlloc { return &global }

// InitGlobal initializes the process-wide allocator over mem.
func InitGlobal(mem []byte, cfg *heap.Config) error {
	return global.Init(mem, cfg)
}

// New returns an initialized allocator over mem.
func New(mem []byte, cfg *heap.Config) (*GlobalAlloc, error) {
	a := &GlobalAlloc{}
	if err := a.Init(mem, cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// Init binds the allocator to mem. It fails with ErrAlreadyInitialized on a
// second call, and with an error wrapping heap.ErrInit when the arena is
// rejected. A failed Init leaves the allocator uninitialized.
func (a *GlobalAlloc) Init(mem []byte, cfg *heap.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.h != nil {
		return ErrAlreadyInitialized
	}
	h, err := heap.Init(mem, cfg)
	if err != nil {
		return err
	}
	a.h = h
	a.logger = slog.Default()
	if cfg != nil && cfg.Logger != nil {
		a.logger = cfg.Logger
	}
	return nil
}

// Initialized reports whether Init has succeeded.
func (a *GlobalAlloc) Initialized() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.h != nil
}

// Heap returns the underlying heap, or nil before Init. The caller must not
// use it concurrently with the allocator.
func (a *GlobalAlloc) Heap() *heap.Heap {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.h
}

// Alloc returns l.Size bytes aligned to at least l.Align, or nil when the
// layout is invalid, the alignment exceeds heap.Alignment, the allocator is
// uninitialized, or the heap is out of memory.
func (a *GlobalAlloc) Alloc(l Layout) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alloc(l)
}

// AllocZeroed is Alloc with the returned bytes cleared.
func (a *GlobalAlloc) AllocZeroed(l Layout) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	p := a.alloc(l)
	clear(p)
	return p
}

// Dealloc returns p to the heap. The layout is accepted for symmetry with
// Alloc; the heap recovers the block size from the header.
func (a *GlobalAlloc) Dealloc(p []byte, _ Layout) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.free(p)
}

// Realloc resizes p to newSize under l's alignment. It grows in place when
// the block's capacity allows, and otherwise allocates, copies and frees.
// On failure nil is returned and p is left untouched.
func (a *GlobalAlloc) Realloc(p []byte, l Layout, newSize int) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.realloc(p, Layout{Size: newSize, Align: l.Align})
}

// Allocate returns size bytes at the natural alignment.
func (a *GlobalAlloc) Allocate(size int) []byte {
	return a.Alloc(LayoutFor(size))
}

// Reallocate resizes b to size bytes at the natural alignment.
func (a *GlobalAlloc) Reallocate(size int, b []byte) []byte {
	return a.Realloc(b, LayoutFor(len(b)), size)
}

// Free releases b.
func (a *GlobalAlloc) Free(b []byte) {
	a.Dealloc(b, Layout{})
}

// Diagnostics returns the heap's counters, or the zero value before Init.
func (a *GlobalAlloc) Diagnostics() heap.Diagnostics {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.h == nil {
		return heap.Diagnostics{}
	}
	return a.h.Diagnostics()
}

func (a *GlobalAlloc) alloc(l Layout) []byte {
	if a.h == nil {
		return nil
	}
	if err := l.Validate(); err != nil {
		a.logger.Warn("allocation rejected", "size", l.Size, "align", l.Align, "error", err)
		return nil
	}
	return a.h.Allocate(l.Size)
}

func (a *GlobalAlloc) free(p []byte) {
	if a.h == nil || p == nil {
		return
	}
	a.h.Free(p)
}

func (a *GlobalAlloc) realloc(p []byte, l Layout) []byte {
	if p == nil {
		return a.alloc(l)
	}
	if err := l.Validate(); err != nil {
		a.logger.Warn("reallocation rejected", "size", l.Size, "align", l.Align, "error", err)
		return nil
	}
	if l.Size <= cap(p) {
		return p[:l.Size]
	}
	q := a.alloc(l)
	if q == nil {
		return nil
	}
	copy(q, p)
	a.free(p)
	return q
}
