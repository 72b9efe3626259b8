package heap

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/joshuapare/o1heap/internal/format"
)

const (
	// Alignment is the guaranteed alignment of every payload: 16 bytes on
	// 32-bit platforms, 32 bytes on 64-bit platforms.
	Alignment = format.Alignment

	// HeaderSize is the per-block overhead placed directly before each payload.
	HeaderSize = format.HeaderSize

	// MinBlockSize is the smallest block, header included.
	MinBlockSize = format.MinBlockSize

	// MaxBins is the largest supported bin count.
	MaxBins = format.MaxBins
)

// Rounding selects how a request size is turned into a block size.
type Rounding uint8

const (
	// RoundGoodFit rounds the request up to the alignment unit. The head of
	// the request's own bin is tried first, then the smallest bin whose every
	// block fits.
	RoundGoodFit Rounding = iota

	// RoundPow2 rounds the block size up to a power of two, so the first
	// non-empty bin at or above the request always fits.
	RoundPow2
)

func (r Rounding) String() string {
	switch r {
	case RoundGoodFit:
		return "goodfit"
	case RoundPow2:
		return "pow2"
	default:
		return fmt.Sprintf("Rounding(%d)", uint8(r))
	}
}

// ParseRounding maps a policy name ("goodfit", "pow2") to a Rounding.
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "goodfit", "good-fit":
		return RoundGoodFit, nil
	case "pow2", "power-of-two":
		return RoundPow2, nil
	default:
		return 0, fmt.Errorf("%w: unknown rounding %q", ErrBadConfig, s)
	}
}

// Config defines the bin configuration of a heap.
// The bin count and rounding policy are the space/time trade-off that governs
// the fragmentation bound; neither affects correctness.
type Config struct {
	// Bins is the number of size-class bins (1..MaxBins). Zero means MaxBins.
	// Capacity is capped to the largest block the last bin can hold.
	Bins int

	// Rounding is the size-rounding policy.
	Rounding Rounding

	// Debug enables misuse assertions in Free (foreign pointer, double free).
	// Violations panic.
	Debug bool

	// Logger receives initialization and out-of-memory records.
	// Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig is used when Init is given a nil config.
var DefaultConfig = Config{
	Bins:     MaxBins,
	Rounding: RoundGoodFit,
}

// MinArenaSize returns the smallest arena Init accepts with the default
// config: the instance region plus one minimal block.
func MinArenaSize() int {
	return DefaultConfig.MinArenaSize()
}

// MinArenaSize returns the smallest arena Init accepts with this config.
func (c *Config) MinArenaSize() int {
	return format.InstanceSize(c.bins()) + MinBlockSize
}

func (c *Config) bins() int {
	if c.Bins == 0 {
		return MaxBins
	}
	return c.Bins
}

func (c *Config) validate() error {
	if c.Bins < 0 || c.Bins > MaxBins {
		return fmt.Errorf("%w: bins=%d, want 1..%d", ErrBadConfig, c.Bins, MaxBins)
	}
	if c.Rounding > RoundPow2 {
		return fmt.Errorf("%w: rounding=%d", ErrBadConfig, c.Rounding)
	}
	return nil
}

// maxBlockSize returns the largest block the last bin can represent.
func (c *Config) maxBlockSize() int {
	shift := c.bins() + format.MinBlockShift
	if shift >= format.WordBits-1 {
		return format.AlignDown(math.MaxInt)
	}
	return 1<<shift - Alignment
}

// MaxCapacity returns the largest capacity a heap with this config manages.
// Arena bytes beyond InstanceSize+MaxCapacity are left unused.
func (c *Config) MaxCapacity() int {
	return c.maxBlockSize()
}
