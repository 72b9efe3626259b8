package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/o1heap/heap"
	"github.com/joshuapare/o1heap/internal/format"
	"github.com/joshuapare/o1heap/internal/workload"
)

func TestMinsize(t *testing.T) {
	tests := []struct {
		name   string
		bins   int
		format string
		want   []string
	}{
		{"text", 0, "text", []string{"Alignment:", "Header size:", "Min arena size:", "Max capacity:"}},
		{"yaml", 16, "yaml", []string{"alignment:", "min_arena:", "bins: 16"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobals(t)
			minsizeBins = tt.bins
			outFormat = tt.format
			out, err := captureOutput(t, func() error { return runMinsize(nil) })
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestMinsize_JSON(t *testing.T) {
	resetGlobals(t)
	jsonOut = true
	minsizeBins = 8

	out, err := captureOutput(t, func() error { return runMinsize(nil) })
	require.NoError(t, err)

	var s sizing
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, heap.Alignment, s.Alignment)
	assert.Equal(t, 8, s.Bins)
	assert.Equal(t, format.InstanceSize(8)+heap.MinBlockSize, s.MinArenaSize)
	assert.Equal(t, heap.MinBlockSize<<8-heap.Alignment, s.MaxCapacity)
}

func TestMinsize_InvalidBins(t *testing.T) {
	resetGlobals(t)
	minsizeBins = heap.MaxBins + 1
	_, err := captureOutput(t, func() error { return runMinsize(nil) })
	assert.ErrorContains(t, err, "bins must be in")
}

func TestOutputFormat_Unknown(t *testing.T) {
	resetGlobals(t)
	outFormat = "xml"
	_, err := captureOutput(t, func() error { return runMinsize(nil) })
	assert.ErrorContains(t, err, "unknown output format")
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1,234,567", formatNumber(1234567))
	assert.Equal(t, "999", formatNumber(uint64(999)))
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "1.0 MB", formatBytes(1<<20))
}

func TestSimulate(t *testing.T) {
	resetGlobals(t)
	jsonOut = true

	out, err := execCmd(t, newSimulateCmd(), "--ops", "2000", "--arena", "262144", "--verify-every", "100")
	require.NoError(t, err)

	var rep workload.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 2000, rep.Ops)
	assert.True(t, rep.InvariantsOK)
	assert.Zero(t, rep.Diagnostics.Allocated)
	assert.Positive(t, rep.Allocs)
}

func TestSimulate_Text(t *testing.T) {
	resetGlobals(t)
	out, err := execCmd(t, newSimulateCmd(), "--ops", "500", "--rounding", "pow2")
	require.NoError(t, err)
	assert.Contains(t, out, "pow2")
	assert.Contains(t, out, "Invariants hold")
}

func TestSimulate_ProfilePrecedence(t *testing.T) {
	resetGlobals(t)
	settings.Seed = 42

	path := filepath.Join(t.TempDir(), "small.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
name = "small"
arena_size = 65536
ops = 500
seed = 3
max_size = 128
`), 0o644))

	simProfile = path
	simOps = 300
	simSeed = 9
	simChanged = func(name string) bool { return name == "ops" }
	t.Cleanup(func() { simProfile, simOps, simSeed = "", 0, 0 })

	p, err := simulateProfile()
	require.NoError(t, err)
	assert.Equal(t, "small", p.Name)
	assert.Equal(t, 65536, p.ArenaSize)
	assert.Equal(t, 300, p.Ops, "flag overrides profile")
	assert.Equal(t, int64(3), p.Seed, "profile overrides settings; unset flag ignored")
	assert.Equal(t, 128, p.MaxSize)
}

func TestSimulate_InvalidProfile(t *testing.T) {
	resetGlobals(t)
	_, err := execCmd(t, newSimulateCmd(), "--rounding", "best")
	assert.Error(t, err)
}

func TestSimulate_TraceReplays(t *testing.T) {
	resetGlobals(t)
	trace := filepath.Join(t.TempDir(), "run.trace")

	out, err := execCmd(t, newSimulateCmd(), "--ops", "1000", "--trace", trace)
	require.NoError(t, err)
	assert.Contains(t, out, "Failed:            0")

	jsonOut = true
	out, err = execCmd(t, newReplayCmd(), trace)
	require.NoError(t, err)

	var rep workload.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 1000, rep.Ops)
	assert.Zero(t, rep.Failed)
	assert.Zero(t, rep.Skipped)
	assert.True(t, rep.InvariantsOK)
}

func TestReplay(t *testing.T) {
	tests := []struct {
		name    string
		trace   string
		args    []string
		wantErr string
		want    []string
	}{
		{
			name:  "balanced",
			trace: "# boot\nalloc 1 100\nalloc 2 200\nfree 1\nfree 2\n",
			want:  []string{"Allocations:       2", "Frees:             2", "Invariants hold"},
		},
		{
			name:  "keep live",
			trace: "alloc 1 100\nalloc 2 200\nfree 1\n",
			args:  []string{"--keep-live"},
			want:  []string{"Live at end:       1"},
		},
		{
			name:    "unknown free",
			trace:   "free 7\n",
			wantErr: "unknown id 7",
		},
		{
			name:    "duplicate id",
			trace:   "alloc 1 8\nalloc 1 8\n",
			wantErr: "already live",
		},
		{
			name:    "malformed",
			trace:   "alloc one 8\n",
			wantErr: "trace line 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobals(t)
			path := filepath.Join(t.TempDir(), "t.trace")
			require.NoError(t, os.WriteFile(path, []byte(tt.trace), 0o644))

			out, err := execCmd(t, newReplayCmd(), append([]string{path}, tt.args...)...)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestReplay_MissingFile(t *testing.T) {
	resetGlobals(t)
	_, err := execCmd(t, newReplayCmd(), filepath.Join(t.TempDir(), "missing.trace"))
	assert.ErrorContains(t, err, "failed to open trace")
}

func TestStress(t *testing.T) {
	resetGlobals(t)
	jsonOut = true
	settings.Seed = 10

	out, err := execCmd(t, newStressCmd(), "--seeds", "4", "--workers", "2", "--ops", "1000", "--arena", "131072")
	require.NoError(t, err)

	var sum stressSummary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, 4, sum.Seeds)
	assert.Equal(t, 2, sum.Workers)
	assert.Zero(t, sum.Failures)
	require.Len(t, sum.Results, 4)
	for i, r := range sum.Results {
		assert.Equal(t, int64(10+i), r.Seed)
		assert.Empty(t, r.Error)
		require.NotNil(t, r.Report)
		assert.True(t, r.Report.InvariantsOK)
	}
}

func TestStress_InvalidSeeds(t *testing.T) {
	resetGlobals(t)
	_, err := execCmd(t, newStressCmd(), "--seeds", "0")
	assert.ErrorContains(t, err, "--seeds must be positive")
}

func TestLayout(t *testing.T) {
	resetGlobals(t)
	jsonOut = true

	out, err := execCmd(t, newLayoutCmd(), "--ops", "40", "--limit", "0")
	require.NoError(t, err)

	var rep layoutReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Blocks, rep.Total)

	var total, used, binned int
	for i, b := range rep.Blocks {
		if i > 0 {
			prev := rep.Blocks[i-1]
			assert.Equal(t, prev.Offset+prev.Size, b.Offset, "blocks tile the arena")
			assert.False(t, !prev.Used && !b.Used, "adjacent free blocks at %#x", b.Offset)
		}
		total += b.Size
		if b.Used {
			used += b.Size
		}
	}
	for _, b := range rep.Bins {
		binned += b.Bytes
	}
	assert.Equal(t, int(rep.Diagnostics.Capacity), total)
	assert.Equal(t, int(rep.Diagnostics.Allocated), used)
	assert.Equal(t, total-used, binned)
}

func TestLayout_Limit(t *testing.T) {
	resetGlobals(t)
	out, err := execCmd(t, newLayoutCmd(), "--ops", "40", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "OFFSET")
	assert.Contains(t, out, "more blocks")
	assert.Contains(t, out, "Max allocation:")
}

func TestSizeClass(t *testing.T) {
	assert.Equal(t, 0, sizeClass(heap.MinBlockSize))
	assert.Equal(t, 0, sizeClass(2*heap.MinBlockSize-heap.Alignment))
	assert.Equal(t, 1, sizeClass(2*heap.MinBlockSize))
}

func TestRoot_SettingsFromEnvironment(t *testing.T) {
	resetGlobals(t)
	t.Setenv("O1HEAP_BINS", "16")
	t.Setenv("O1HEAP_LOG_LEVEL", "error")
	t.Cleanup(func() { rootCmd.SetArgs(nil); resetGlobals(t) })

	rootCmd.SetArgs([]string{"--json", "minsize"})
	out, err := captureOutput(t, rootCmd.Execute)
	require.NoError(t, err)

	var s sizing
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 16, s.Bins)
	assert.Equal(t, "error", settings.LogLevel)
}

func TestRoot_InvalidSettings(t *testing.T) {
	resetGlobals(t)
	t.Setenv("O1HEAP_ROUNDING", "worstfit")
	t.Cleanup(func() { rootCmd.SetArgs(nil); resetGlobals(t) })

	rootCmd.SetArgs([]string{"minsize"})
	_, err := captureOutput(t, rootCmd.Execute)
	assert.ErrorContains(t, err, "invalid settings")
}
