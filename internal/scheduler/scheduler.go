package scheduler

import (
	"context"

	"github.com/vk/ocrbridge/internal/ctxlog"
	"github.com/vk/ocrbridge/internal/model"
)

// Disabled is the Scheduler used when no scheduler URL is configured. The
// service still answers description and synchronous evaluation requests.
type Disabled struct{}

// Submit implements Scheduler and always fails with ErrNotConfigured.
func (Disabled) Submit(ctx context.Context, job model.JobDescriptor, pool model.Pool) (model.JobHandle, error) {
	ctxlog.FromContext(ctx).Warn("Refusing job submission; no scheduler is configured.", "key", job.Key, "pool", pool)
	return model.JobHandle{}, ErrNotConfigured
}

// Status implements StatusReader and always fails with ErrNotConfigured.
func (Disabled) Status(ctx context.Context, id string) (model.JobHandle, error) {
	return model.JobHandle{}, ErrNotConfigured
}
