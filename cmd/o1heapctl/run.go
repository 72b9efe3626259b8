package main

import (
	"fmt"

	"github.com/joshuapare/o1heap/arena"
	"github.com/joshuapare/o1heap/heap"
	"github.com/joshuapare/o1heap/internal/logger"
	"github.com/joshuapare/o1heap/internal/workload"
)

// baseProfile returns the default workload with the arena and heap settings
// applied on top.
func baseProfile() workload.Profile {
	p := workload.DefaultProfile()
	p.ArenaSize = settings.ArenaSize
	p.Bins = settings.Bins
	p.Rounding = settings.Rounding
	p.Seed = settings.Seed
	return p
}

// mappedHeap maps an anonymous arena of the given size and initializes a
// heap over it. The returned release function unmaps the arena.
func mappedHeap(size int, cfg *heap.Config) (*heap.Heap, func() error, error) {
	mem, release, err := arena.Map(size)
	if err != nil {
		return nil, nil, fmt.Errorf("mapping %d byte arena: %w", size, err)
	}
	h, err := heap.Init(mem, cfg)
	if err != nil {
		release()
		return nil, nil, err
	}
	return h, release, nil
}

// profileHeapConfig returns the heap configuration for p with the settings'
// debug flag and the CLI logger.
func profileHeapConfig(p workload.Profile) (*heap.Config, error) {
	cfg, err := p.HeapConfig()
	if err != nil {
		return nil, err
	}
	cfg.Debug = settings.Debug
	cfg.Logger = logger.L
	return cfg, nil
}

// printReport prints a run report as text.
func printReport(rep *workload.Report) {
	d := rep.Diagnostics
	printInfo("Ops:               %s\n", formatNumber(rep.Ops))
	printInfo("Allocations:       %s\n", formatNumber(rep.Allocs))
	printInfo("Frees:             %s\n", formatNumber(rep.Frees))
	printInfo("Failed:            %s\n", formatNumber(rep.Failed))
	if rep.Skipped > 0 {
		printInfo("Skipped:           %s\n", formatNumber(rep.Skipped))
	}
	printInfo("Peak live:         %s\n", formatNumber(rep.PeakLive))
	if rep.Live > 0 {
		printInfo("Live at end:       %s\n", formatNumber(rep.Live))
	}
	printInfo("Min max-alloc:     %s\n", formatBytes(rep.MinMaxAlloc))
	printInfo("\nDiagnostics:\n")
	printInfo("  Capacity:        %s\n", formatBytes(int(d.Capacity)))
	printInfo("  Allocated:       %s\n", formatBytes(int(d.Allocated)))
	printInfo("  Peak allocated:  %s\n", formatBytes(int(d.PeakAllocated)))
	printInfo("  Peak request:    %s\n", formatBytes(int(d.PeakRequestSize)))
	printInfo("  OOM count:       %s\n", formatNumber(d.OOMCount))
	if d.Capacity > 0 {
		printVerbose("  Peak usage:      %.1f%%\n", 100*float64(d.PeakAllocated)/float64(d.Capacity))
	}
	if rep.InvariantsOK {
		printInfo("\n✓ Invariants hold\n")
	}
}
