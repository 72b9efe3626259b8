package o1heap

import (
	"fmt"

	"github.com/joshuapare/o1heap/heap"
	"github.com/joshuapare/o1heap/internal/format"
)

// Layout describes a request: its size in bytes and required alignment.
type Layout struct {
	Size  int
	Align int
}

// NewLayout returns a validated Layout.
func NewLayout(size, align int) (Layout, error) {
	l := Layout{Size: size, Align: align}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// LayoutFor returns the Layout of n bytes at the allocator's natural alignment.
func LayoutFor(n int) Layout {
	return Layout{Size: n, Align: heap.Alignment}
}

// Validate checks the layout against what the heap can serve.
func (l Layout) Validate() error {
	if l.Size < 0 {
		return fmt.Errorf("%w: size %d", ErrInvalidLayout, l.Size)
	}
	if l.Align <= 0 || !format.IsPow2(uint(l.Align)) {
		return fmt.Errorf("%w: align %d is not a power of two", ErrInvalidLayout, l.Align)
	}
	if l.Align > heap.Alignment {
		return fmt.Errorf("%w: align %d > %d", ErrAlignment, l.Align, heap.Alignment)
	}
	return nil
}
