package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/o1heap/heap"
	"github.com/joshuapare/o1heap/internal/format"
)

var minsizeBins int

func init() {
	cmd := newMinsizeCmd()
	cmd.Flags().IntVar(&minsizeBins, "bins", 0, "Bin count (0 = settings value, or the maximum)")
	rootCmd.AddCommand(cmd)
}

func newMinsizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "minsize",
		Short: "Print the arena sizing constants",
		Long: `The minsize command prints the layout constants of the allocator on this
platform: alignment, header overhead, instance region size and the smallest
arena Init accepts for the selected bin count.

Example:
  o1heapctl minsize
  o1heapctl minsize --bins 16 --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMinsize(args)
		},
	}
}

// sizing is the minsize report.
type sizing struct {
	Alignment    int `json:"alignment"     yaml:"alignment"`
	HeaderSize   int `json:"header_size"   yaml:"header_size"`
	MinBlockSize int `json:"min_block"     yaml:"min_block"`
	Bins         int `json:"bins"          yaml:"bins"`
	InstanceSize int `json:"instance_size" yaml:"instance_size"`
	MinArenaSize int `json:"min_arena"     yaml:"min_arena"`
	MaxCapacity  int `json:"max_capacity"  yaml:"max_capacity"`
}

func runMinsize(_ []string) error {
	bins := minsizeBins
	if bins == 0 {
		bins = settings.Bins
	}
	if bins == 0 {
		bins = heap.MaxBins
	}
	if bins < 1 || bins > heap.MaxBins {
		return fmt.Errorf("bins must be in 1..%d, got %d", heap.MaxBins, bins)
	}

	cfg := heap.Config{Bins: bins}
	s := sizing{
		Alignment:    heap.Alignment,
		HeaderSize:   heap.HeaderSize,
		MinBlockSize: heap.MinBlockSize,
		Bins:         bins,
		InstanceSize: format.InstanceSize(bins),
		MinArenaSize: cfg.MinArenaSize(),
		MaxCapacity:  cfg.MaxCapacity(),
	}

	return emit(s, func() {
		printInfo("Alignment:       %d\n", s.Alignment)
		printInfo("Header size:     %d\n", s.HeaderSize)
		printInfo("Min block size:  %d\n", s.MinBlockSize)
		printInfo("Bins:            %d\n", s.Bins)
		printInfo("Instance size:   %d\n", s.InstanceSize)
		printInfo("Min arena size:  %d\n", s.MinArenaSize)
		printInfo("Max capacity:    %s (%s bytes)\n", formatBytes(s.MaxCapacity), formatNumber(s.MaxCapacity))
	})
}
