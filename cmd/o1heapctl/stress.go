package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"

	"github.com/joshuapare/o1heap/arena"
	"github.com/joshuapare/o1heap/heap"
	"github.com/joshuapare/o1heap/internal/logger"
	"github.com/joshuapare/o1heap/internal/workload"
)

var (
	stressSeeds   int
	stressWorkers int
	stressOps     int
	stressArena   int
)

func init() {
	rootCmd.AddCommand(newStressCmd())
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run many seeded workloads in parallel",
		Long: `The stress command runs the default workload once per seed, each on its own
arena, using a bounded worker pool. Heaps are independent, so every worker
owns its heap outright. Any invariant violation or corrupted payload fails
the command.

Example:
  o1heapctl stress --seeds 64 --workers 8
  o1heapctl stress --seeds 16 --ops 200000 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(args)
		},
	}
	cmd.Flags().IntVar(&stressSeeds, "seeds", 8, "Number of seeds to run, starting at the configured seed")
	cmd.Flags().IntVar(&stressWorkers, "workers", 0, "Worker pool size (0 = settings value, or CPU count)")
	cmd.Flags().IntVar(&stressOps, "ops", 20_000, "Operations per seed")
	cmd.Flags().IntVar(&stressArena, "arena", 0, "Arena size per seed (0 = settings value)")
	return cmd
}

// seedResult is the outcome of one stress seed.
type seedResult struct {
	Seed     int64            `json:"seed"               yaml:"seed"`
	Report   *workload.Report `json:"report,omitempty"   yaml:"report,omitempty"`
	Error    string           `json:"error,omitempty"    yaml:"error,omitempty"`
	Duration time.Duration    `json:"duration_ns"        yaml:"duration_ns"`
}

// stressSummary is the stress report.
type stressSummary struct {
	Seeds    int          `json:"seeds"    yaml:"seeds"`
	Workers  int          `json:"workers"  yaml:"workers"`
	Failures int          `json:"failures" yaml:"failures"`
	Results  []seedResult `json:"results"  yaml:"results"`
}

func runStress(_ []string) error {
	if stressSeeds <= 0 {
		return fmt.Errorf("--seeds must be positive, got %d", stressSeeds)
	}
	workers := stressWorkers
	if workers == 0 {
		workers = settings.WorkerCount()
	}
	if workers < 0 {
		return fmt.Errorf("--workers must not be negative, got %d", workers)
	}

	base := baseProfile()
	base.Ops = stressOps
	if stressArena > 0 {
		base.ArenaSize = stressArena
	}
	if err := base.Validate(); err != nil {
		return err
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]seedResult, stressSeeds)
	var wg sync.WaitGroup
	for i := range results {
		p := base
		p.Seed = base.Seed + int64(i)
		p.Name = fmt.Sprintf("stress-%d", p.Seed)
		results[i].Seed = p.Seed

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			start := time.Now()
			rep, err := stressOne(p)
			results[i].Report = rep
			results[i].Duration = time.Since(start)
			if err != nil {
				results[i].Error = err.Error()
				logger.Error("stress seed failed", "seed", p.Seed, "error", err)
			}
		})
		if err != nil {
			wg.Done()
			results[i].Error = err.Error()
		}
	}
	wg.Wait()

	sum := stressSummary{Seeds: stressSeeds, Workers: workers, Results: results}
	for _, r := range results {
		if r.Error != "" {
			sum.Failures++
		}
	}

	if err := emit(sum, func() { printStress(sum) }); err != nil {
		return err
	}
	if sum.Failures > 0 {
		return fmt.Errorf("stress: %d of %d seeds failed", sum.Failures, sum.Seeds)
	}
	return nil
}

// stressOne runs one seed on its own arena. A panic from a debug assertion
// is reported as an error.
func stressOne(p workload.Profile) (rep *workload.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	cfg, err := profileHeapConfig(p)
	if err != nil {
		return nil, err
	}
	h, err := heap.Init(arena.Aligned(p.ArenaSize), cfg)
	if err != nil {
		return nil, err
	}
	rep, err = workload.Run(h, workload.Generate(p), workload.RunOptions{VerifyEvery: p.VerifyEvery})
	if errors.Is(err, workload.ErrCorruption) {
		return rep, fmt.Errorf("seed %d: %w", p.Seed, err)
	}
	return rep, err
}

func printStress(sum stressSummary) {
	printInfo("Seeds:    %d\n", sum.Seeds)
	printInfo("Workers:  %d\n", sum.Workers)
	for _, r := range sum.Results {
		if r.Error != "" {
			printInfo("  seed %-6d FAIL  %s\n", r.Seed, r.Error)
			continue
		}
		printVerbose("  seed %-6d ok    %s ops, %s failed, min max-alloc %s (%v)\n",
			r.Seed, formatNumber(r.Report.Ops), formatNumber(r.Report.Failed),
			formatBytes(r.Report.MinMaxAlloc), r.Duration.Round(time.Millisecond))
	}
	if sum.Failures == 0 {
		printInfo("\n✓ All seeds passed\n")
	} else {
		printInfo("\n✗ %d seeds failed\n", sum.Failures)
	}
}
