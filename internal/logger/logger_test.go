package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Disabled(t *testing.T) {
	var buf bytes.Buffer
	closer, err := Init(Options{Enabled: false, Stderr: &buf})
	require.NoError(t, err)
	defer closer.Close()

	Info("dropped")
	assert.Empty(t, buf.String())
}

func TestInit_TextToWriter(t *testing.T) {
	var buf bytes.Buffer
	closer, err := Init(Options{Enabled: true, Stderr: &buf, Level: slog.LevelWarn})
	require.NoError(t, err)
	defer closer.Close()

	Info("below level")
	Warn("arena exhausted", "oom_count", 3)

	out := buf.String()
	assert.NotContains(t, out, "below level")
	assert.Contains(t, out, `msg="arena exhausted"`)
	assert.Contains(t, out, "oom_count=3")
}

func TestInit_JSONToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "o1heapctl.log")
	closer, err := Init(Options{Enabled: true, File: path, Format: "json", Level: slog.LevelDebug})
	require.NoError(t, err)

	Debug("heap initialized", "capacity", 4096)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "heap initialized", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
	assert.EqualValues(t, 4096, rec["capacity"])
}

func TestInit_UnknownFormat(t *testing.T) {
	_, err := Init(Options{Enabled: true, Format: "xml", Stderr: &bytes.Buffer{}})
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}
