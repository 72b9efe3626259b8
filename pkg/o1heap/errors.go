package o1heap

import "errors"

var (
	// ErrAlreadyInitialized is returned by Init on a GlobalAlloc that already
	// manages an arena.
	ErrAlreadyInitialized = errors.New("o1heap: allocator already initialized")

	// ErrInvalidLayout indicates a negative size or an alignment that is not a
	// positive power of two.
	ErrInvalidLayout = errors.New("o1heap: invalid layout")

	// ErrAlignment indicates an alignment above heap.Alignment.
	ErrAlignment = errors.New("o1heap: alignment exceeds allocator guarantee")
)
