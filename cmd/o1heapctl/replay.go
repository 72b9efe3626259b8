package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/o1heap/internal/logger"
	"github.com/joshuapare/o1heap/internal/workload"
)

var (
	replayKeepLive    bool
	replayVerifyEvery int
)

func init() {
	rootCmd.AddCommand(newReplayCmd())
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace>",
		Short: "Replay a recorded allocation trace",
		Long: `The replay command runs an allocation trace against a fresh arena sized by
the settings. Each line of the trace is "alloc <id> <size>" or "free <id>";
blank lines and lines starting with # are ignored.

Replay is strict: freeing an id that is not live, or allocating an id that
is already live, is an error.

Example:
  o1heapctl replay boot.trace
  o1heapctl replay boot.trace --keep-live --verify-every 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args)
		},
	}
	cmd.Flags().BoolVar(&replayKeepLive, "keep-live", false, "Do not free live allocations at the end")
	cmd.Flags().IntVar(&replayVerifyEvery, "verify-every", 0, "Verify invariants every n ops")
	return cmd
}

func runReplay(args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	ops, err := workload.ParseTrace(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	printVerbose("Loaded %s ops from %s\n", formatNumber(len(ops)), path)

	cfg, err := profileHeapConfig(baseProfile())
	if err != nil {
		return err
	}
	h, release, err := mappedHeap(settings.ArenaSize, cfg)
	if err != nil {
		return err
	}
	defer release()

	rep, err := workload.Run(h, ops, workload.RunOptions{
		VerifyEvery: replayVerifyEvery,
		Strict:      true,
		KeepLive:    replayKeepLive,
	})
	if err != nil {
		logger.Error("replay failed", "trace", path, "error", err)
		return fmt.Errorf("replay: %w", err)
	}

	return emit(rep, func() {
		printInfo("Trace:             %s\n", path)
		printReport(rep)
	})
}

// writeTraceFile writes ops to path in trace format.
func writeTraceFile(path string, ops []workload.Op) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trace: %w", err)
	}
	if err := workload.WriteTrace(f, ops); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
