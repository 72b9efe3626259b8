package heap

import (
	"testing"

	"github.com/joshuapare/o1heap/arena"
)

var benchRoundings = []Rounding{RoundGoodFit, RoundPow2}

// BenchmarkAllocateFree measures one allocate/free pair against a heap that
// already holds many live allocations. The cost must not depend on how many.
//
// Names are Benchmark<Op>/<rounding>/<live set>, which scripts/benchmark_parser
// groups on.
func BenchmarkAllocateFree(b *testing.B) {
	for _, r := range benchRoundings {
		for _, live := range []int{0, 100, 10000} {
			b.Run(r.String()+"/"+sizeName(live), func(b *testing.B) {
				h, err := Init(arena.Aligned(64<<20), &Config{Rounding: r})
				if err != nil {
					b.Fatal(err)
				}
				for i := range live {
					if h.Allocate(64+i%512) == nil {
						b.Fatalf("prefill %d failed", i)
					}
				}

				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					p := h.Allocate(256)
					h.Free(p)
				}
			})
		}
	}
}

func BenchmarkAllocateFree_Fragmented(b *testing.B) {
	for _, r := range benchRoundings {
		b.Run(r.String()+"/fragmented", func(b *testing.B) {
			h, err := Init(arena.Aligned(16<<20), &Config{Rounding: r})
			if err != nil {
				b.Fatal(err)
			}
			var ps [][]byte
			for i := range 20000 {
				p := h.Allocate(32 + (i*37)%900)
				if p == nil {
					break
				}
				ps = append(ps, p)
			}
			for i := 0; i < len(ps); i += 2 {
				h.Free(ps[i])
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				p := h.Allocate(32 + (i*53)%900)
				if p != nil {
					h.Free(p)
				}
			}
		})
	}
}

func sizeName(live int) string {
	switch {
	case live == 0:
		return "empty"
	case live < 1000:
		return "small"
	default:
		return "large"
	}
}
