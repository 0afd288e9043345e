package assembler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/ocrbridge/internal/config"
	"github.com/vk/ocrbridge/internal/ctxlog"
	"github.com/vk/ocrbridge/internal/model"
	"github.com/vk/ocrbridge/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// PrepareTraining validates the request, writes the dataset manifest and
// builds the final argument list and engine record. Nothing is written when
// validation fails.
func (a *Assembler) PrepareTraining(ctx context.Context, req TrainingRequest) (TrainingPlan, error) {
	logger := ctxlog.FromContext(ctx)

	desc, err := a.descriptor(model.JobKindTraining)
	if err != nil {
		return TrainingPlan{}, err
	}
	if desc.Framework == nil {
		return TrainingPlan{}, fmt.Errorf("%w: training descriptor has no framework", ErrUnavailable)
	}

	modelDir, err := resolve("model", a.settings.Root(model.JobKindTraining), req.ModelID)
	if err != nil {
		return TrainingPlan{}, err
	}
	manifestDir := modelDir
	if strings.TrimSpace(req.ModelConfiguration) != "" {
		manifestDir, err = resolve("model configuration", modelDir, req.ModelConfiguration)
		if err != nil {
			return TrainingPlan{}, err
		}
	}

	content, err := buildManifest(a.settings.Folders.Data, req.Dataset)
	if err != nil {
		return TrainingPlan{}, err
	}
	batch, err := resolveBatch(a.settings.Folders.Assemble, req.Models)
	if err != nil {
		return TrainingPlan{}, err
	}

	manifest := filepath.Join(manifestDir, a.settings.Training.DatasetFilename)
	images := manifest
	if manifestDir != modelDir {
		images, err = filepath.Rel(modelDir, manifest)
		if err != nil {
			return TrainingPlan{}, fmt.Errorf("relating manifest to model folder: %w", err)
		}
	}

	args := desc.Aliases.Expand(req.Arguments)
	args = append(args, reservedArguments(desc.Framework, images, modelDir)...)
	args = append(args, batch...)

	if err := writeManifest(manifest, content); err != nil {
		return TrainingPlan{}, err
	}
	logger.Debug("Wrote dataset manifest.", "path", manifest, "bytes", len(content))

	job := a.job(model.JobKindTraining, req.Key, modelDir, args)
	return TrainingPlan{
		Job:      job,
		ModelDir: modelDir,
		Manifest: manifest,
		Record: model.EngineRecord{
			ID:        a.newID(),
			User:      strings.TrimSpace(req.User),
			Method:    model.EngineMethodProcessor,
			State:     model.EngineStateRunning,
			Type:      model.EngineTypeCalamari,
			Version:   desc.Framework.Version,
			Processor: job.Descriptor.Executable,
			Arguments: job.Descriptor.Arguments,
			Created:   a.now().UTC(),
		},
	}, nil
}

// StartTraining prepares the job, persists the engine record and submits.
// A failed persist is logged and does not stop the submission.
func (a *Assembler) StartTraining(ctx context.Context, req TrainingRequest) (result TrainingJob, err error) {
	ctx, span := observability.StartSpan(ctx, "assembler.StartTraining",
		attribute.String("key", req.Key),
		attribute.String("model", req.ModelID),
	)
	defer func() { observability.EndSpan(span, err) }()

	plan, err := a.PrepareTraining(ctx, req)
	if err != nil {
		return TrainingJob{}, err
	}

	if err := a.records.Persist(ctx, plan.ModelDir, plan.Record); err != nil {
		ctxlog.FromContext(ctx).Warn("Could not persist engine record.",
			"model_dir", plan.ModelDir, "record_id", plan.Record.ID, "error", err)
	}

	handle, err := a.submit(ctx, model.JobKindTraining, plan.Job)
	if err != nil {
		return TrainingJob{}, err
	}
	return TrainingJob{Handle: handle, Record: plan.Record}, nil
}

// reservedArguments renders the framework's reserved arguments in declared
// order.
func reservedArguments(fw *config.Framework, images, modelDir string) []string {
	var args []string
	for _, r := range fw.Reserved {
		switch r.Role {
		case config.ReservedImages:
			args = append(args, r.Flag, images)
		case config.ReservedOutput:
			args = append(args, r.Flag, modelDir)
		case config.ReservedConstant:
			args = append(args, r.Flag, r.Value)
		}
	}
	return args
}
