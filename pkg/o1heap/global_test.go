package o1heap

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/o1heap/arena"
	"github.com/joshuapare/o1heap/heap"
)

func newTestAlloc(t *testing.T, size int) *GlobalAlloc {
	t.Helper()
	a, err := New(arena.Aligned(size), nil)
	require.NoError(t, err)
	return a
}

func TestGlobalAlloc_Lifecycle(t *testing.T) {
	var a GlobalAlloc
	assert.False(t, a.Initialized())
	assert.Nil(t, a.Alloc(LayoutFor(16)), "uninitialized allocator returns nil")
	assert.Nil(t, a.Heap())
	assert.Zero(t, a.Diagnostics())
	a.Free(make([]byte, 4)) // no-op before Init

	require.NoError(t, a.Init(arena.Aligned(4096), nil))
	assert.True(t, a.Initialized())
	assert.NotNil(t, a.Heap())

	err := a.Init(arena.Aligned(4096), nil)
	require.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestGlobalAlloc_InitFailureLeavesUninitialized(t *testing.T) {
	var a GlobalAlloc
	err := a.Init(arena.Aligned(heap.MinArenaSize()-1), nil)
	require.ErrorIs(t, err, heap.ErrInit)
	assert.False(t, a.Initialized())

	require.NoError(t, a.Init(arena.Aligned(4096), nil), "a failed Init can be retried")
}

func TestGlobalAlloc_AllocDealloc(t *testing.T) {
	a := newTestAlloc(t, 8192)

	l := Layout{Size: 100, Align: 8}
	p := a.Alloc(l)
	require.NotNil(t, p)
	assert.Len(t, p, 100)
	assert.True(t, arena.IsAligned(p))
	assert.Positive(t, a.Diagnostics().Allocated)

	a.Dealloc(p, l)
	assert.Zero(t, a.Diagnostics().Allocated)
	require.True(t, a.Heap().InvariantsHold())
}

func TestGlobalAlloc_RejectsOverAlignment(t *testing.T) {
	var logs bytes.Buffer
	cfg := &heap.Config{Logger: slog.New(slog.NewTextHandler(&logs, nil))}
	a, err := New(arena.Aligned(4096), cfg)
	require.NoError(t, err)
	before := a.Diagnostics()

	assert.Nil(t, a.Alloc(Layout{Size: 16, Align: heap.Alignment * 2}))
	assert.Nil(t, a.Alloc(Layout{Size: 16, Align: 3}))
	assert.Nil(t, a.Alloc(Layout{Size: -1, Align: 8}))

	assert.Equal(t, before, a.Diagnostics(), "rejected layouts never reach the heap")
	assert.Contains(t, logs.String(), "allocation rejected")

	assert.NotNil(t, a.Alloc(Layout{Size: 16, Align: heap.Alignment}), "natural alignment is accepted")
}

func TestGlobalAlloc_AllocZeroed(t *testing.T) {
	a := newTestAlloc(t, 4096)

	p := a.Alloc(LayoutFor(256))
	require.NotNil(t, p)
	for i := range p {
		p[i] = 0xFF
	}
	a.Free(p)

	q := a.AllocZeroed(LayoutFor(256))
	require.NotNil(t, q)
	assert.Equal(t, make([]byte, 256), q)
}

func TestGlobalAlloc_Realloc(t *testing.T) {
	a := newTestAlloc(t, 8192)

	p := a.Allocate(40)
	require.NotNil(t, p)
	copy(p, "constant-time allocation")

	// Fits the block's capacity: same backing memory.
	q := a.Reallocate(cap(p), p)
	require.NotNil(t, q)
	assert.Same(t, &p[0], &q[0])

	// Beyond capacity: moved, contents preserved, old block released.
	r := a.Reallocate(2000, q)
	require.NotNil(t, r)
	assert.Len(t, r, 2000)
	assert.Equal(t, "constant-time allocation", string(r[:24]))
	assert.NotSame(t, &p[0], &r[0])
	require.True(t, a.Heap().InvariantsHold())

	// Unsatisfiable: nil, original untouched.
	before := a.Diagnostics().Allocated
	assert.Nil(t, a.Reallocate(1<<20, r))
	assert.Equal(t, before, a.Diagnostics().Allocated)
	assert.Equal(t, "constant-time allocation", string(r[:24]))

	// Nil input behaves like Alloc.
	s := a.Realloc(nil, LayoutFor(0), 64)
	require.NotNil(t, s)
	assert.Len(t, s, 64)

	a.Free(r)
	a.Free(s)
	assert.Zero(t, a.Diagnostics().Allocated)
}

func TestGlobalAlloc_Concurrent(t *testing.T) {
	a := newTestAlloc(t, 1<<20)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				p := a.Allocate(16 + (w*31+i)%400)
				if p != nil {
					p[0] = byte(w)
					a.Free(p)
				}
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, a.Diagnostics().Allocated)
	require.True(t, a.Heap().InvariantsHold())
}

func TestLayout_Validate(t *testing.T) {
	tests := []struct {
		name string
		l    Layout
		want error
	}{
		{"natural", LayoutFor(10), nil},
		{"byte aligned", Layout{Size: 1, Align: 1}, nil},
		{"zero size", Layout{Size: 0, Align: 8}, nil},
		{"negative size", Layout{Size: -1, Align: 8}, ErrInvalidLayout},
		{"zero align", Layout{Size: 8, Align: 0}, ErrInvalidLayout},
		{"non power of two", Layout{Size: 8, Align: 24}, ErrInvalidLayout},
		{"over aligned", Layout{Size: 8, Align: heap.Alignment * 4}, ErrAlignment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.l.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewLayout(8, 7)
	require.ErrorIs(t, err, ErrInvalidLayout)
	l, err := NewLayout(8, 4)
	require.NoError(t, err)
	assert.Equal(t, Layout{Size: 8, Align: 4}, l)
}

func TestGlobal_Singleton(t *testing.T) {
	assert.Same(t, Global(), Global())

	require.NoError(t, InitGlobal(arena.Aligned(16<<10), nil))
	require.ErrorIs(t, InitGlobal(arena.Aligned(16<<10), nil), ErrAlreadyInitialized)

	p := Global().Allocate(32)
	require.NotNil(t, p)
	Global().Free(p)
}
