// Package engine runs the evaluation engine in-process for callers that need
// the measure right away instead of a scheduler handle.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/ocrbridge/internal/assembler"
	"github.com/vk/ocrbridge/internal/ctxlog"
	"github.com/vk/ocrbridge/internal/model"
	"github.com/vk/ocrbridge/internal/observability"
	"github.com/vk/ocrbridge/internal/report"
	"go.opentelemetry.io/otel/attribute"
)

// Evaluator runs evaluation jobs synchronously and parses their report.
type Evaluator struct {
	assembler *assembler.Assembler
	runner    Runner
}

// NewEvaluator creates an Evaluator. A nil runner uses ExecRunner.
func NewEvaluator(a *assembler.Assembler, runner Runner) *Evaluator {
	if runner == nil {
		runner = &ExecRunner{}
	}
	return &Evaluator{assembler: a, runner: runner}
}

// Evaluate prepares the evaluation job in a folder below the temporary root
// and runs it. Errors are returned only
// for requests that could not be prepared; everything that happens once the
// engine is involved is reported in the measure.
func (e *Evaluator) Evaluate(ctx context.Context, req assembler.MeasureRequest) (model.EvaluationMeasure, error) {
	job, err := e.assembler.PrepareMeasure(ctx, req)
	if err != nil {
		return model.EvaluationMeasure{}, err
	}
	d := job.Descriptor

	ctx, span := observability.StartSpan(ctx, "engine.Evaluate",
		attribute.String("key", d.Key),
		attribute.String("executable", d.Executable),
	)
	defer span.End()
	ctx, logger := ctxlog.With(ctx, "key", d.Key, "executable", d.Executable)
	logger.Info("Running evaluation.", "working_directory", d.WorkingDirectory, "arguments", d.Arguments)

	res, err := e.runner.Run(ctx, d.WorkingDirectory, d.Executable, d.Arguments...)
	measure := measureFor(res, err)

	span.SetAttributes(attribute.String("measure.state", string(measure.State)))
	logger.Info("Evaluation finished.", "state", measure.State, "exit_code", res.ExitCode)
	return measure, nil
}

// measureFor maps a process outcome to a measure: exit 0 is parsed, a
// non-zero exit or a start failure is interrupted.
func measureFor(res Result, err error) model.EvaluationMeasure {
	switch {
	case err == nil && res.ExitCode == 0:
		return report.Parse(res.Stdout, res.Stderr)
	case res.ExitCode > 0:
		return report.Interrupted(
			fmt.Sprintf("process exit code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr)),
			res.Stdout, res.Stderr)
	case err != nil:
		return report.Interrupted(err.Error(), res.Stdout, res.Stderr)
	default:
		return report.Interrupted(fmt.Sprintf("process exit code %d", res.ExitCode), res.Stdout, res.Stderr)
	}
}
