package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// A settings file with a syntax error makes app.NewApp panic.
	invalidHCL := `
		folders {
			data = "/srv/data"
		// Missing closing brace here
	`
	filePath := filepath.Join(t.TempDir(), "service.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0o600), "failed to set up test file")

	out := &bytes.Buffer{}
	runErr := run(context.Background(), strings.NewReader(""), out, []string{"-listen", "", filePath})

	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	errStr := runErr.Error()
	require.Contains(t, errStr, "application startup panicked")
	require.Contains(t, errStr, "failed to parse")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), strings.NewReader(""), out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), strings.NewReader(""), out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_ParseReportFromStdin(t *testing.T) {
	t.Parallel()

	in := strings.NewReader("Got mean normalized label error rate of 2.50% (10 / 400, 4 Lines)\nGT PRED COUNT PERCENT\n")
	out := &bytes.Buffer{}
	require.NoError(t, run(context.Background(), in, out, []string{"-parse-report", "-"}))
	require.Contains(t, out.String(), `"errorRatePercent": 2.5`)
}

func TestRun_ParseReportFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("no report here\n"), 0o600))
	out := &bytes.Buffer{}
	require.NoError(t, run(context.Background(), strings.NewReader(""), out, []string{"-parse-report", path}))
	require.Contains(t, out.String(), `"state": "inconsistent"`)
	require.Contains(t, out.String(), "no summary available")
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	settings := `
folders {
  data     = "` + filepath.ToSlash(root) + `"
  assemble = "` + filepath.ToSlash(root) + `"
  projects = "` + filepath.ToSlash(root) + `"
}

processors {
  evaluation  = "eval"
  recognition = "predict"
  training    = "train"
}
`
	path := filepath.Join(root, "service.hcl")
	require.NoError(t, os.WriteFile(path, []byte(settings), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := &bytes.Buffer{}
	require.NoError(t, run(ctx, strings.NewReader(""), out, []string{"-listen", "127.0.0.1:0", "-log-format", "text", path}))
	require.Contains(t, out.String(), "Shutdown requested.")
}
