package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/ocrbridge/internal/alias"
	"github.com/vk/ocrbridge/internal/assembler"
	"github.com/vk/ocrbridge/internal/config"
	"github.com/vk/ocrbridge/internal/model"
	"github.com/vk/ocrbridge/internal/recordstore"
	"github.com/vk/ocrbridge/internal/scheduler"
)

type fakeRunner struct {
	dir    string
	name   string
	args   []string
	result Result
	err    error
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) (Result, error) {
	f.dir, f.name, f.args = dir, name, args
	return f.result, f.err
}

const sampleReport = `Got mean normalized label error rate of 2.50% (10 / 400, 4 Lines)
GT PRED COUNT PERCENT
{abc} {abd} 3 0.75%
`

func newEvaluator(t *testing.T, runner Runner) (*Evaluator, string) {
	t.Helper()
	root := t.TempDir()
	s := &config.Settings{
		Folders:    config.Folders{Data: root, Assemble: root, Projects: root, Temporary: filepath.Join(root, "tmp")},
		Processors: config.Processors{Evaluation: "calamari-eval", Recognition: "r", Training: "t"},
	}
	s.Normalize()
	store := config.NewStoreFromDescriptors(map[model.JobKind]*config.Descriptor{
		model.JobKindEvaluation: {Kind: model.JobKindEvaluation, Description: "e", Aliases: alias.Table{"--all": {"--n_confusions", "-1"}}},
	})
	a := assembler.New(s, store, scheduler.Disabled{}, recordstore.NewFileStore("engine.json"))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "tmp", "c1"), 0o755))
	return NewEvaluator(a, runner), root
}

func TestEvaluate_Completed(t *testing.T) {
	runner := &fakeRunner{result: Result{Stdout: sampleReport, Stderr: "warn"}}
	ev, root := newEvaluator(t, runner)

	measure, err := ev.Evaluate(context.Background(), assembler.MeasureRequest{Folder: "c1", Arguments: []string{"--all"}})
	require.NoError(t, err)

	assert.Equal(t, model.MeasureStateCompleted, measure.State)
	require.NotNil(t, measure.Summary)
	assert.Equal(t, 2.5, measure.Summary.ErrorRatePercent)
	assert.Len(t, measure.Details, 1)
	assert.Equal(t, "warn", measure.Stderr)

	assert.Equal(t, filepath.Join(root, "tmp", "c1"), runner.dir)
	assert.Equal(t, "calamari-eval", runner.name)
	assert.Equal(t, []string{"--n_confusions", "-1"}, runner.args)
}

func TestEvaluate_NonZeroExit(t *testing.T) {
	runner := &fakeRunner{result: Result{Stdout: "partial", Stderr: "  model not found\n", ExitCode: 3}, err: errors.New("exit status 3")}
	ev, _ := newEvaluator(t, runner)

	measure, err := ev.Evaluate(context.Background(), assembler.MeasureRequest{Folder: "c1"})
	require.NoError(t, err)

	assert.Equal(t, model.MeasureStateInterrupted, measure.State)
	assert.Equal(t, "process exit code 3: model not found", measure.Message)
	assert.Equal(t, "partial", measure.Stdout)
	assert.Nil(t, measure.Summary)
}

func TestEvaluate_StartFailure(t *testing.T) {
	runner := &fakeRunner{result: Result{ExitCode: -1}, err: errors.New(`exec: "calamari-eval": executable file not found in $PATH`)}
	ev, _ := newEvaluator(t, runner)

	measure, err := ev.Evaluate(context.Background(), assembler.MeasureRequest{Folder: "c1"})
	require.NoError(t, err)
	assert.Equal(t, model.MeasureStateInterrupted, measure.State)
	assert.Contains(t, measure.Message, "executable file not found")
}

func TestEvaluate_InvalidRequest(t *testing.T) {
	runner := &fakeRunner{}
	ev, _ := newEvaluator(t, runner)

	_, err := ev.Evaluate(context.Background(), assembler.MeasureRequest{Folder: "../c1"})
	assert.ErrorIs(t, err, assembler.ErrInvalidArgument)
	assert.Empty(t, runner.name, "engine never started")
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	dir := t.TempDir()
	r := &ExecRunner{}

	res, err := r.Run(context.Background(), dir, "/bin/sh", "-c", "pwd; echo oops >&2")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, filepath.Base(dir))
	assert.Equal(t, "oops\n", res.Stderr)

	res, err = r.Run(context.Background(), dir, "/bin/sh", "-c", "exit 4")
	assert.Error(t, err)
	assert.Equal(t, 4, res.ExitCode)

	res, err = r.Run(context.Background(), dir, filepath.Join(dir, "does-not-exist"))
	assert.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)
}
