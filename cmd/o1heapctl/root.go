package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/o1heap/internal/config"
	"github.com/joshuapare/o1heap/internal/logger"
)

var (
	// Global flags
	verbose   bool
	quiet     bool
	jsonOut   bool
	outFormat string
	logLevel  string
	logFile   string

	// settings holds file and environment configuration. Flags that were set
	// explicitly take precedence over it.
	settings = config.Default()

	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "o1heapctl",
	Short: "Exercise and inspect constant-time arena heaps",
	Long: `o1heapctl runs allocation workloads against an o1heap arena and reports
on fragmentation, out-of-memory behaviour and structural integrity. It also
prints the arena sizing constants for a given configuration.

Settings are read from the file named by O1HEAP_CONFIG_FILE and from
O1HEAP_* environment variables; command-line flags override both.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format (same as --format json)")
	rootCmd.PersistentFlags().StringVar(&outFormat, "format", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file (rotated) instead of stderr")
}

// setup loads settings and initializes logging before any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	s, err := config.Load()
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	settings = *s

	if cmd.Flags().Changed("log-level") {
		settings.LogLevel = logLevel
	}
	if cmd.Flags().Changed("log-file") {
		settings.LogFile = logFile
	}
	if verbose && !cmd.Flags().Changed("log-level") {
		settings.LogLevel = "info"
	}

	level, err := logger.ParseLevel(settings.LogLevel)
	if err != nil {
		return err
	}
	logCloser, err = logger.Init(logger.Options{
		Enabled: !quiet || settings.LogFile != "",
		File:    settings.LogFile,
		Format:  settings.LogFormat,
		Level:   level,
	})
	return err
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
