package workload

import (
	"errors"
	"fmt"

	"github.com/joshuapare/o1heap/heap"
	"github.com/joshuapare/o1heap/heap/verify"
)

// ErrCorruption is returned when a payload no longer holds the bytes written
// to it at allocation time.
var ErrCorruption = errors.New("workload: payload corrupted")

// RunOptions tunes Run.
type RunOptions struct {
	// VerifyEvery runs heap.Verify after every n ops. 0 checks only at the end.
	VerifyEvery int

	// Strict rejects frees of unknown ids and duplicate live ids. Generated
	// workloads run non-strict because their allocations may fail.
	Strict bool

	// KeepLive leaves live allocations in place at the end instead of freeing
	// them, so the final layout can be inspected.
	KeepLive bool
}

// Report summarizes a run.
type Report struct {
	Ops          int              `json:"ops"           yaml:"ops"`
	Allocs       int              `json:"allocs"        yaml:"allocs"`
	Frees        int              `json:"frees"         yaml:"frees"`
	Failed       int              `json:"failed"        yaml:"failed"`
	Skipped      int              `json:"skipped"       yaml:"skipped"`
	PeakLive     int              `json:"peak_live"     yaml:"peak_live"`
	Live         int              `json:"live"          yaml:"live"`
	MinMaxAlloc  int              `json:"min_max_alloc" yaml:"min_max_alloc"`
	Diagnostics  heap.Diagnostics `json:"diagnostics"   yaml:"diagnostics"`
	InvariantsOK bool             `json:"invariants_ok" yaml:"invariants_ok"`
}

// Run applies ops to h. It fills every payload with a pattern derived from
// its id and checks the pattern when the allocation is freed.
//
// A structural violation or corrupted payload stops the run and is returned
// along with the partial report.
func Run(h *heap.Heap, ops []Op, opts RunOptions) (*Report, error) {
	rep := &Report{MinMaxAlloc: h.MaxAllocationSize()}
	live := make(map[int][]byte)

	for i, op := range ops {
		rep.Ops++
		switch op.Kind {
		case OpAlloc:
			if _, dup := live[op.ID]; dup {
				if opts.Strict {
					return rep, fmt.Errorf("workload: op %d: id %d is already live", i, op.ID)
				}
				rep.Skipped++
				continue
			}
			p := h.Allocate(op.Size)
			if p == nil {
				rep.Failed++
				continue
			}
			fill(p, op.ID)
			live[op.ID] = p
			rep.Allocs++
			rep.PeakLive = max(rep.PeakLive, len(live))
		case OpFree:
			p, ok := live[op.ID]
			if !ok {
				if opts.Strict {
					return rep, fmt.Errorf("workload: op %d: free of unknown id %d", i, op.ID)
				}
				rep.Skipped++
				continue
			}
			if !intact(p, op.ID) {
				return rep, fmt.Errorf("%w: id %d (op %d)", ErrCorruption, op.ID, i)
			}
			h.Free(p)
			delete(live, op.ID)
			rep.Frees++
		default:
			return rep, fmt.Errorf("workload: op %d: unknown kind %v", i, op.Kind)
		}

		rep.MinMaxAlloc = min(rep.MinMaxAlloc, h.MaxAllocationSize())
		if opts.VerifyEvery > 0 && rep.Ops%opts.VerifyEvery == 0 {
			if err := h.Verify(); err != nil {
				return rep, fmt.Errorf("workload: after op %d: %w", i, err)
			}
		}
	}

	for id, p := range live {
		if !intact(p, id) {
			return rep, fmt.Errorf("%w: id %d (end of run)", ErrCorruption, id)
		}
	}
	if !opts.KeepLive {
		for id, p := range live {
			h.Free(p)
			delete(live, id)
		}
	}
	rep.Live = len(live)
	rep.Diagnostics = h.Diagnostics()

	if err := errors.Join(h.Verify(), verify.AllInvariants(h)); err != nil {
		return rep, err
	}
	rep.InvariantsOK = true
	return rep, nil
}

func pattern(id, i int) byte {
	return byte(id*131 + i)
}

func fill(p []byte, id int) {
	for i := range p {
		p[i] = pattern(id, i)
	}
}

func intact(p []byte, id int) bool {
	for i, b := range p {
		if b != pattern(id, i) {
			return false
		}
	}
	return true
}
