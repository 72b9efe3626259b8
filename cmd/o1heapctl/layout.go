package main

import (
	"fmt"
	"math/bits"

	"github.com/spf13/cobra"

	"github.com/joshuapare/o1heap/heap"
	"github.com/joshuapare/o1heap/internal/format"
	"github.com/joshuapare/o1heap/internal/workload"
)

var (
	layoutOps   int
	layoutSeed  int64
	layoutArena int
	layoutLimit int
)

func init() {
	rootCmd.AddCommand(newLayoutCmd())
}

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Show the block map after a short workload",
		Long: `The layout command runs a short generated workload, keeps its live
allocations, and prints the resulting physical block sequence and the
non-empty bins.

Example:
  o1heapctl layout --ops 100 --arena 16384
  o1heapctl layout --seed 3 --limit 0 --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(args)
		},
	}
	cmd.Flags().IntVar(&layoutOps, "ops", 64, "Number of operations to run first")
	cmd.Flags().Int64Var(&layoutSeed, "seed", 0, "Random seed (0 = settings value)")
	cmd.Flags().IntVar(&layoutArena, "arena", 16<<10, "Arena size in bytes")
	cmd.Flags().IntVar(&layoutLimit, "limit", 50, "Print at most this many blocks (0 = all)")
	return cmd
}

// blockRow is one entry of the block map.
type blockRow struct {
	Offset int  `json:"offset" yaml:"offset"`
	Size   int  `json:"size"   yaml:"size"`
	Used   bool `json:"used"   yaml:"used"`
	Bin    int  `json:"bin"    yaml:"bin"`
}

// binRow summarizes one non-empty bin.
type binRow struct {
	Index  int `json:"index"  yaml:"index"`
	Blocks int `json:"blocks" yaml:"blocks"`
	Bytes  int `json:"bytes"  yaml:"bytes"`
}

// layoutReport is the layout output.
type layoutReport struct {
	Blocks      []blockRow       `json:"blocks"      yaml:"blocks"`
	Total       int              `json:"total"       yaml:"total"`
	Bins        []binRow         `json:"bins"        yaml:"bins"`
	MaxAlloc    int              `json:"max_alloc"   yaml:"max_alloc"`
	Diagnostics heap.Diagnostics `json:"diagnostics" yaml:"diagnostics"`
}

func runLayout(_ []string) error {
	p := baseProfile()
	p.Name = "layout"
	p.Ops = layoutOps
	p.ArenaSize = layoutArena
	p.LargeEvery = 0
	p.VerifyEvery = 0
	if layoutSeed != 0 {
		p.Seed = layoutSeed
	}
	if err := p.Validate(); err != nil {
		return err
	}
	cfg, err := profileHeapConfig(p)
	if err != nil {
		return err
	}

	h, release, err := mappedHeap(p.ArenaSize, cfg)
	if err != nil {
		return err
	}
	defer release()

	if _, err := workload.Run(h, workload.Generate(p), workload.RunOptions{KeepLive: true}); err != nil {
		return fmt.Errorf("layout: %w", err)
	}

	rep := collectLayout(h, layoutLimit)
	return emit(rep, func() { printLayout(rep) })
}

// collectLayout walks the heap. At most limit blocks are listed; Total
// always counts all of them.
func collectLayout(h *heap.Heap, limit int) layoutReport {
	rep := layoutReport{MaxAlloc: h.MaxAllocationSize(), Diagnostics: h.Diagnostics()}
	for b := range h.Blocks() {
		rep.Total++
		if limit > 0 && len(rep.Blocks) >= limit {
			continue
		}
		row := blockRow{Offset: b.Offset, Size: b.Size, Used: b.Used, Bin: -1}
		if !b.Used {
			row.Bin = sizeClass(b.Size)
		}
		rep.Blocks = append(rep.Blocks, row)
	}

	for mask := h.NonEmptyBins(); mask != 0; mask &= mask - 1 {
		i := bits.TrailingZeros(mask)
		row := binRow{Index: i}
		for b := range h.FreeList(i) {
			row.Blocks++
			row.Bytes += b.Size
		}
		rep.Bins = append(rep.Bins, row)
	}
	return rep
}

// sizeClass returns the bin a free block of the given size belongs to.
func sizeClass(size int) int {
	return format.Log2Floor(uint(size)) - format.MinBlockShift
}

func printLayout(rep layoutReport) {
	printInfo("%-10s  %10s  %-4s  %s\n", "OFFSET", "SIZE", "USED", "BIN")
	for _, b := range rep.Blocks {
		used, bin := "no", fmt.Sprint(b.Bin)
		if b.Used {
			used, bin = "yes", "-"
		}
		printInfo("%#-10x  %10d  %-4s  %s\n", b.Offset, b.Size, used, bin)
	}
	if hidden := rep.Total - len(rep.Blocks); hidden > 0 {
		printInfo("... %d more blocks\n", hidden)
	}

	printInfo("\nBins:\n")
	for _, b := range rep.Bins {
		printInfo("  [%2d] %3d blocks, %s\n", b.Index, b.Blocks, formatBytes(b.Bytes))
	}
	printInfo("\nMax allocation:    %s\n", formatBytes(rep.MaxAlloc))
	printInfo("Allocated:         %s of %s\n",
		formatBytes(int(rep.Diagnostics.Allocated)), formatBytes(int(rep.Diagnostics.Capacity)))
}
