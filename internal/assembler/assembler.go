// Package assembler turns validated job requests into engine invocations and
// hands them to the scheduler.
//
// Every request goes through the same steps: the job kind's descriptor is
// looked up, the caller's folder is resolved below its configured root,
// argument aliases are expanded and kind-specific arguments are appended.
// All validation happens before the first file is written. Each Start
// operation has a Prepare counterpart that stops right before submission.
package assembler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vk/ocrbridge/internal/config"
	"github.com/vk/ocrbridge/internal/ctxlog"
	"github.com/vk/ocrbridge/internal/fsutil"
	"github.com/vk/ocrbridge/internal/model"
	"github.com/vk/ocrbridge/internal/observability"
	"github.com/vk/ocrbridge/internal/recordstore"
	"github.com/vk/ocrbridge/internal/scheduler"
	"go.opentelemetry.io/otel/attribute"
)

// Assembler builds and submits engine jobs. It is safe for concurrent use.
type Assembler struct {
	settings  *config.Settings
	store     *config.Store
	scheduler scheduler.Scheduler
	records   recordstore.Store

	now   func() time.Time
	newID func() string
}

// New creates an Assembler.
func New(settings *config.Settings, store *config.Store, sched scheduler.Scheduler, records recordstore.Store) *Assembler {
	return &Assembler{
		settings:  settings,
		store:     store,
		scheduler: sched,
		records:   records,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// PrepareEvaluation resolves the dataset collection below the data root.
func (a *Assembler) PrepareEvaluation(ctx context.Context, req EvaluationRequest) (Job, error) {
	desc, err := a.descriptor(model.JobKindEvaluation)
	if err != nil {
		return Job{}, err
	}
	dir, err := resolve("collection", a.settings.Root(model.JobKindEvaluation), req.Collection)
	if err != nil {
		return Job{}, err
	}
	return a.job(model.JobKindEvaluation, req.Key, dir, desc.Aliases.Expand(req.Arguments)), nil
}

// StartEvaluation prepares and submits an evaluation job.
func (a *Assembler) StartEvaluation(ctx context.Context, req EvaluationRequest) (handle model.JobHandle, err error) {
	ctx, span := observability.StartSpan(ctx, "assembler.StartEvaluation", attribute.String("key", req.Key))
	defer func() { observability.EndSpan(span, err) }()

	job, err := a.PrepareEvaluation(ctx, req)
	if err != nil {
		return model.JobHandle{}, err
	}
	return a.submit(ctx, model.JobKindEvaluation, job)
}

// PrepareMeasure resolves the folder of a synchronous evaluation below the
// temporary root. The evaluation descriptor supplies the aliases.
func (a *Assembler) PrepareMeasure(ctx context.Context, req MeasureRequest) (Job, error) {
	desc, err := a.descriptor(model.JobKindEvaluation)
	if err != nil {
		return Job{}, err
	}
	if a.settings.Folders.Temporary == "" {
		return Job{}, fmt.Errorf("%w: folders.temporary is not configured", ErrUnavailable)
	}
	dir, err := resolve("folder", a.settings.Folders.Temporary, req.Folder)
	if err != nil {
		return Job{}, err
	}
	return a.job(model.JobKindEvaluation, req.Key, dir, desc.Aliases.Expand(req.Arguments)), nil
}

// PrepareRecognition resolves the project folder and appends the model
// batch arguments after the caller's arguments.
func (a *Assembler) PrepareRecognition(ctx context.Context, req RecognitionRequest) (Job, error) {
	desc, err := a.descriptor(model.JobKindRecognition)
	if err != nil {
		return Job{}, err
	}
	dir, err := resolve("folder", a.settings.Root(model.JobKindRecognition), req.Folder)
	if err != nil {
		return Job{}, err
	}
	batch, err := resolveBatch(a.settings.Folders.Assemble, req.Models)
	if err != nil {
		return Job{}, err
	}

	args := append(desc.Aliases.Expand(req.Arguments), batch...)
	return a.job(model.JobKindRecognition, req.Key, dir, args), nil
}

// StartRecognition prepares and submits a recognition job.
func (a *Assembler) StartRecognition(ctx context.Context, req RecognitionRequest) (handle model.JobHandle, err error) {
	ctx, span := observability.StartSpan(ctx, "assembler.StartRecognition", attribute.String("key", req.Key))
	defer func() { observability.EndSpan(span, err) }()

	job, err := a.PrepareRecognition(ctx, req)
	if err != nil {
		return model.JobHandle{}, err
	}
	return a.submit(ctx, model.JobKindRecognition, job)
}

// descriptor returns the kind's descriptor or an ErrUnavailable error.
func (a *Assembler) descriptor(kind model.JobKind) (*config.Descriptor, error) {
	desc, err := a.store.Descriptor(kind)
	if err != nil {
		return nil, err
	}
	return desc, nil
}

// job builds the descriptor common to every kind.
func (a *Assembler) job(kind model.JobKind, key, dir string, args []string) Job {
	key = strings.TrimSpace(key)
	if key == "" {
		key = a.newID()
	}
	if args == nil {
		args = []string{}
	}
	return Job{
		Descriptor: model.JobDescriptor{
			Key:              key,
			WorkingDirectory: dir,
			Executable:       a.settings.ProcessorName(kind),
			Arguments:        args,
			CaptureStdout:    !a.settings.Output.DiscardStdout,
			CaptureStderr:    !a.settings.Output.DiscardStderr,
		},
		Pool: a.settings.Pool(kind),
	}
}

func (a *Assembler) submit(ctx context.Context, kind model.JobKind, job Job) (model.JobHandle, error) {
	ctx, logger := ctxlog.With(ctx, "kind", kind, "key", job.Descriptor.Key)

	handle, err := a.scheduler.Submit(ctx, job.Descriptor, job.Pool)
	if err != nil {
		logger.Error("Job submission failed.", "error", err)
		return model.JobHandle{}, fmt.Errorf("submitting %s job %s: %w", kind, job.Descriptor.Key, err)
	}
	logger.Info("Job submitted.", "job_id", handle.ID, "pool", job.Pool, "working_directory", job.Descriptor.WorkingDirectory)
	return handle, nil
}

// resolve validates a caller folder below root, wrapping failures as
// ErrInvalidArgument.
func resolve(field, root, folder string) (string, error) {
	dir, err := fsutil.ResolveDir(root, folder)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidArgument, field, err)
	}
	return dir, nil
}
