package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/o1heap/internal/logger"
	"github.com/joshuapare/o1heap/internal/workload"
)

var (
	simProfile     string
	simArena       int
	simOps         int
	simSeed        int64
	simMin         int
	simMax         int
	simRounding    string
	simBins        int
	simVerifyEvery int
	simTrace       string

	// simChanged reports whether a flag was set on the command line.
	simChanged = func(string) bool { return false }
)

func init() {
	rootCmd.AddCommand(newSimulateCmd())
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a generated allocation workload",
		Long: `The simulate command generates a deterministic random workload, runs it
against a freshly mapped arena and reports allocation statistics. Every
payload is filled with a pattern that is checked on free, and the heap's
invariants are verified periodically and at the end.

Settings apply first, then the profile file, then flags.

Example:
  o1heapctl simulate --ops 50000 --seed 7
  o1heapctl simulate --profile fragment.toml --rounding pow2 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			simChanged = cmd.Flags().Changed
			return runSimulate(args)
		},
	}
	cmd.Flags().StringVar(&simProfile, "profile", "", "TOML workload profile")
	cmd.Flags().IntVar(&simArena, "arena", 0, "Arena size in bytes")
	cmd.Flags().IntVar(&simOps, "ops", 0, "Number of operations")
	cmd.Flags().Int64Var(&simSeed, "seed", 0, "Random seed")
	cmd.Flags().IntVar(&simMin, "min", 0, "Smallest request size")
	cmd.Flags().IntVar(&simMax, "max", 0, "Largest request size")
	cmd.Flags().StringVar(&simRounding, "rounding", "", "Rounding policy: goodfit or pow2")
	cmd.Flags().IntVar(&simBins, "bins", 0, "Bin count (0 = maximum)")
	cmd.Flags().IntVar(&simVerifyEvery, "verify-every", 0, "Verify invariants every n ops")
	cmd.Flags().StringVar(&simTrace, "trace", "", "Also write the generated ops to this trace file")
	return cmd
}

// simulateProfile resolves the workload profile from settings, the profile
// file and the flags that were set.
func simulateProfile() (workload.Profile, error) {
	p := baseProfile()
	if simProfile != "" {
		loaded, err := workload.LoadProfile(simProfile)
		if err != nil {
			return workload.Profile{}, err
		}
		p = loaded
	}

	if simChanged("arena") {
		p.ArenaSize = simArena
	}
	if simChanged("ops") {
		p.Ops = simOps
	}
	if simChanged("seed") {
		p.Seed = simSeed
	}
	if simChanged("min") {
		p.MinSize = simMin
	}
	if simChanged("max") {
		p.MaxSize = simMax
	}
	if simChanged("rounding") {
		p.Rounding = simRounding
	}
	if simChanged("bins") {
		p.Bins = simBins
	}
	if simChanged("verify-every") {
		p.VerifyEvery = simVerifyEvery
	}
	return p, p.Validate()
}

func runSimulate(_ []string) error {
	p, err := simulateProfile()
	if err != nil {
		return err
	}
	cfg, err := profileHeapConfig(p)
	if err != nil {
		return err
	}

	ops := workload.Generate(p)
	printVerbose("Generated %s ops (profile %q, seed %d)\n", formatNumber(len(ops)), p.Name, p.Seed)
	if simTrace != "" {
		if err := writeTraceFile(simTrace, ops); err != nil {
			return err
		}
		printVerbose("Wrote trace to %s\n", simTrace)
	}

	h, release, err := mappedHeap(p.ArenaSize, cfg)
	if err != nil {
		return err
	}
	defer release()

	rep, err := workload.Run(h, ops, workload.RunOptions{VerifyEvery: p.VerifyEvery})
	if err != nil {
		logger.Error("simulation failed", "profile", p.Name, "seed", p.Seed, "error", err)
		return fmt.Errorf("simulate: %w", err)
	}
	logger.Info("simulation finished", "profile", p.Name, "ops", rep.Ops, "failed", rep.Failed)

	return emit(rep, func() {
		printInfo("Profile:           %s (seed %d, %s, %s arena)\n",
			p.Name, p.Seed, h.Rounding(), formatBytes(p.ArenaSize))
		printReport(rep)
	})
}
