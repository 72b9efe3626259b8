package workload

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/joshuapare/o1heap/heap"
)

// Profile parameterizes a generated workload.
type Profile struct {
	Name      string `toml:"name"`
	ArenaSize int    `toml:"arena_size"`
	Bins      int    `toml:"bins"`
	Rounding  string `toml:"rounding"`
	Seed      int64  `toml:"seed"`
	Ops       int    `toml:"ops"`

	// Request sizes are uniform in [MinSize, MaxSize].
	MinSize int `toml:"min_size"`
	MaxSize int `toml:"max_size"`

	// AllocRatio is the probability that a step allocates when something is
	// live. 0.5 keeps the live set roughly stable once the arena fills.
	AllocRatio float64 `toml:"alloc_ratio"`

	// Every LargeEvery-th allocation requests LargeSize instead. 0 disables.
	LargeEvery int `toml:"large_every"`
	LargeSize  int `toml:"large_size"`

	// VerifyEvery runs the full invariant check after every n ops. 0 checks
	// only at the end.
	VerifyEvery int `toml:"verify_every"`
}

// DefaultProfile is a mixed small-object workload on a 1 MiB arena.
func DefaultProfile() Profile {
	return Profile{
		Name:        "default",
		ArenaSize:   1 << 20,
		Rounding:    "goodfit",
		Seed:        1,
		Ops:         100_000,
		MinSize:     1,
		MaxSize:     512,
		AllocRatio:  0.55,
		LargeEvery:  100,
		LargeSize:   16 << 10,
		VerifyEvery: 1000,
	}
}

// LoadProfile reads a TOML profile. Keys absent from the file keep their
// DefaultProfile values.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return Profile{}, fmt.Errorf("workload: profile %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Profile{}, fmt.Errorf("workload: profile %s: unknown keys %v", path, undecoded)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("workload: profile %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the profile's ranges.
func (p Profile) Validate() error {
	var errs []error
	if p.ArenaSize <= 0 {
		errs = append(errs, fmt.Errorf("arena_size must be positive, got %d", p.ArenaSize))
	}
	if p.Ops < 0 {
		errs = append(errs, fmt.Errorf("ops must not be negative, got %d", p.Ops))
	}
	if p.MinSize < 0 || p.MaxSize < p.MinSize {
		errs = append(errs, fmt.Errorf("size range [%d, %d] is invalid", p.MinSize, p.MaxSize))
	}
	if p.AllocRatio < 0 || p.AllocRatio > 1 {
		errs = append(errs, fmt.Errorf("alloc_ratio must be in [0, 1], got %g", p.AllocRatio))
	}
	if p.LargeEvery < 0 || p.LargeSize < 0 {
		errs = append(errs, errors.New("large_every and large_size must not be negative"))
	}
	if _, err := heap.ParseRounding(p.Rounding); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// HeapConfig returns the heap configuration the profile asks for.
func (p Profile) HeapConfig() (*heap.Config, error) {
	rounding, err := heap.ParseRounding(p.Rounding)
	if err != nil {
		return nil, err
	}
	return &heap.Config{Bins: p.Bins, Rounding: rounding}, nil
}
