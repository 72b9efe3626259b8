package heap

import (
	"fmt"
	"io"
	"log/slog"
	"unsafe"

	"github.com/joshuapare/o1heap/internal/format"
)

// Ref is an arena-relative payload offset: the distance from arena[0] to the
// first payload byte of an allocation.
type Ref int

// NilRef is the absence value. Offset 0 holds the instance region, so no
// payload can start there.
const NilRef Ref = 0

// Heap is the instance handle of one arena.
//
// The long-lived allocator state (bin heads, bitmask, diagnostics) lives in
// the instance region at the start of the arena; Heap only caches the
// immutable geometry and the configuration.
type Heap struct {
	arena    []byte
	bins     int
	rounding Rounding
	debug    bool
	logger   *slog.Logger

	// start is the offset of the first block, end the exclusive end of the last.
	start int
	end   int

	stats opStats
}

// opStats counts allocator paths taken, for tests and tooling.
type opStats struct {
	Allocs      int // successful allocations
	Frees       int // non-nil frees
	Splits      int // allocations that split off a remainder block
	Absorbed    int // allocations that absorbed a too-small leftover
	FloorHits   int // allocations served by the O(1) floor-bin head check
	MergesRight int // frees merged with the right neighbour
	MergesLeft  int // frees merged with the left neighbour
}

// Init validates the arena, carves it into a single free block and returns
// the instance handle. A nil cfg selects DefaultConfig.
//
// Init must be called exactly once per arena; calling it again on an arena
// that holds live allocations discards them.
func Init(arena []byte, cfg *Config) (*Heap, error) {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if len(arena) == 0 {
		return nil, ErrNilArena
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(arena)))
	if !format.IsAligned(uint(base)) {
		return nil, fmt.Errorf("%w (base=%#x)", ErrMisaligned, base)
	}
	if minSize := cfg.MinArenaSize(); len(arena) < minSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrArenaTooSmall, len(arena), minSize)
	}

	bins := cfg.bins()
	start := format.InstanceSize(bins)
	capacity := min(format.AlignDown(len(arena)-start), cfg.maxBlockSize())

	logger := cfg.Logger
	if logger == nil {
		logger = defaultLogger()
	}

	h := &Heap{
		arena:    arena,
		bins:     bins,
		rounding: cfg.Rounding,
		debug:    cfg.Debug,
		logger:   logger,
		start:    start,
		end:      start + capacity,
	}

	clear(arena[:start+HeaderSize])
	h.putField(format.InstanceCapacityField, uint(capacity))

	h.setHeader(start, capacity, false)
	h.setPrevSize(start, 0)
	h.insert(start)

	h.logger.Info("heap initialized",
		"arena", len(arena),
		"capacity", capacity,
		"bins", bins,
		"rounding", h.rounding.String(),
	)
	return h, nil
}

// Payload returns the full payload of the allocation at r (its length is the
// block's usable capacity, which may exceed the requested size).
func (h *Heap) Payload(r Ref) []byte {
	if r == NilRef {
		return nil
	}
	off := int(r) - HeaderSize
	end := off + h.blockSize(off)
	return h.arena[int(r):end:end]
}

// RefOf maps a slice returned by Allocate back to its Ref. Slices that do not
// point into the arena map to NilRef. The slice must not have been resliced
// from the front.
func (h *Heap) RefOf(p []byte) Ref {
	if cap(p) == 0 {
		return NilRef
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(h.arena)))
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(p)))
	if ptr < base+uintptr(h.start+HeaderSize) || ptr >= base+uintptr(h.end) {
		return NilRef
	}
	return Ref(ptr - base)
}

// BinCount returns the configured number of bins.
func (h *Heap) BinCount() int { return h.bins }

// Rounding returns the size-rounding policy.
func (h *Heap) Rounding() Rounding { return h.rounding }

// Bounds returns the offset of the first block and the exclusive end of the
// last block.
func (h *Heap) Bounds() (start, end int) { return h.start, h.end }

// Arena returns the managed region. Callers must treat it as read-only.
func (h *Heap) Arena() []byte { return h.arena }

// Stats returns counters of the allocation and coalescing paths taken.
func (h *Heap) Stats() opStats { return h.stats }

func defaultLogger() *slog.Logger {
	if logAlloc {
		return slog.Default()
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
