package workload

import "math/rand"

// Generate returns the op sequence described by p. The same profile always
// yields the same sequence.
//
// The generator does not know the heap's state: an allocation it emits may
// fail at run time, and Run skips frees of ids whose allocation failed.
func Generate(p Profile) []Op {
	rng := rand.New(rand.NewSource(p.Seed))
	ops := make([]Op, 0, p.Ops)
	live := make([]int, 0, 1024)
	nextID, allocs := 1, 0

	for range p.Ops {
		if len(live) > 0 && rng.Float64() >= p.AllocRatio {
			i := rng.Intn(len(live))
			ops = append(ops, Op{Kind: OpFree, ID: live[i]})
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
			continue
		}

		allocs++
		size := p.MinSize
		if p.MaxSize > p.MinSize {
			size += rng.Intn(p.MaxSize - p.MinSize + 1)
		}
		if p.LargeEvery > 0 && allocs%p.LargeEvery == 0 {
			size = p.LargeSize
		}
		ops = append(ops, Op{Kind: OpAlloc, ID: nextID, Size: size})
		live = append(live, nextID)
		nextID++
	}
	return ops
}
