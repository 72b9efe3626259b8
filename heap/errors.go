package heap

import (
	"errors"
	"fmt"
)

var (
	// ErrInit is wrapped by every initialization failure.
	ErrInit = errors.New("heap: initialization failed: arena too small or misaligned")

	// ErrNilArena indicates a nil or empty arena.
	ErrNilArena = fmt.Errorf("%w: nil arena", ErrInit)

	// ErrMisaligned indicates the arena base is not aligned to Alignment.
	ErrMisaligned = fmt.Errorf("%w: base not aligned to %d bytes", ErrInit, Alignment)

	// ErrArenaTooSmall indicates the arena is smaller than the config's MinArenaSize.
	ErrArenaTooSmall = fmt.Errorf("%w: arena too small", ErrInit)

	// ErrBadConfig indicates an out-of-range Config field.
	ErrBadConfig = fmt.Errorf("%w: invalid config", ErrInit)
)

// InvariantError describes the first structural violation found by Verify.
type InvariantError struct {
	Invariant string // e.g. "bin-membership", "link-symmetry"
	Offset    int    // block offset, -1 when not tied to a block
	Message   string
}

func (e *InvariantError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("heap: %s at offset 0x%X: %s", e.Invariant, e.Offset, e.Message)
	}
	return fmt.Sprintf("heap: %s: %s", e.Invariant, e.Message)
}
