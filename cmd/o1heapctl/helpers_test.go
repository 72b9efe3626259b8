package main

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/o1heap/internal/config"
)

// resetGlobals restores the global flags and settings between tests.
func resetGlobals(t *testing.T) {
	t.Helper()
	verbose, quiet, jsonOut = false, false, false
	outFormat = "text"
	minsizeBins = 0
	settings = config.Default()
	simChanged = func(string) bool { return false }
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	// Drain concurrently so large outputs cannot fill the pipe.
	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	out := <-done
	r.Close()
	return string(out), fnErr
}

// execCmd runs a freshly built subcommand with args.
func execCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return captureOutput(t, cmd.Execute)
}
