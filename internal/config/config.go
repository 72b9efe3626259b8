// Package config loads o1heapctl settings from an optional YAML file and the
// environment. Environment variables override the file; command-line flags
// override both and are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/joshuapare/o1heap/heap"
)

// EnvPrefix prefixes every environment variable, e.g. O1HEAP_ARENA_SIZE.
const EnvPrefix = "O1HEAP"

// Settings are the tunables shared by the o1heapctl subcommands.
type Settings struct {
	ArenaSize int    `envconfig:"ARENA_SIZE" yaml:"arenaSize"`
	Bins      int    `envconfig:"BINS"       yaml:"bins"`
	Rounding  string `envconfig:"ROUNDING"   yaml:"rounding"`
	Debug     bool   `envconfig:"DEBUG"      yaml:"debug"`
	Seed      int64  `envconfig:"SEED"       yaml:"seed"`
	Workers   int    `envconfig:"WORKERS"    yaml:"workers"`

	LogLevel  string `envconfig:"LOG_LEVEL"  yaml:"logLevel"`
	LogFormat string `envconfig:"LOG_FORMAT" yaml:"logFormat"`
	LogFile   string `envconfig:"LOG_FILE"   yaml:"logFile"`
}

// Default returns the settings used when neither file nor environment sets a
// value. Defaults are applied first so that only explicitly set values
// override them.
func Default() Settings {
	return Settings{
		ArenaSize: 1 << 20,
		Rounding:  "goodfit",
		Seed:      1,
		LogLevel:  "warn",
		LogFormat: "text",
	}
}

// Load reads the file named by O1HEAP_CONFIG_FILE, if set, then applies the
// environment on top of it.
func Load() (*Settings, error) {
	s := Default()
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, &s); err != nil {
			return nil, fmt.Errorf("unmarshaling config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &s); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}
	return &s, nil
}

// Validate checks the settings that have a restricted range.
func (s *Settings) Validate() error {
	var errs []error
	if s.ArenaSize <= 0 {
		errs = append(errs, fmt.Errorf("arenaSize (%s_ARENA_SIZE) must be positive, got %d", EnvPrefix, s.ArenaSize))
	}
	if s.Bins < 0 || s.Bins > heap.MaxBins {
		errs = append(errs, fmt.Errorf("bins (%s_BINS) must be in 0..%d, got %d", EnvPrefix, heap.MaxBins, s.Bins))
	}
	if _, err := heap.ParseRounding(s.Rounding); err != nil {
		errs = append(errs, fmt.Errorf("rounding (%s_ROUNDING): %w", EnvPrefix, err))
	}
	if s.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers (%s_WORKERS) must not be negative, got %d", EnvPrefix, s.Workers))
	}
	return errors.Join(errs...)
}

// HeapConfig returns the heap configuration described by the settings.
func (s *Settings) HeapConfig(logger *slog.Logger) (*heap.Config, error) {
	rounding, err := heap.ParseRounding(s.Rounding)
	if err != nil {
		return nil, err
	}
	return &heap.Config{
		Bins:     s.Bins,
		Rounding: rounding,
		Debug:    s.Debug,
		Logger:   logger,
	}, nil
}

// WorkerCount returns Workers, or the number of CPUs when it is zero.
func (s *Settings) WorkerCount() int {
	if s.Workers == 0 {
		return runtime.NumCPU()
	}
	return s.Workers
}
