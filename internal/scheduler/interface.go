// Package scheduler defines the boundary to the external job scheduler.
//
// # Why Scheduler Exists
//
// Engine runs take minutes to hours. Executing them inside the request path
// would tie the service's lifetime to the engine's, so the assembler stops
// at a fully resolved JobDescriptor and hands it over. From then on the
// scheduler owns the job: it queues it in the requested pool, runs the
// executable, captures output and exposes the state for polling.
//
// This provides several key benefits:
//   - **Testability:** The assembler is tested against a recording fake.
//   - **Replaceable transport:** socket.io today, anything with one method tomorrow.
//   - **Bounded latency:** Requests return as soon as the job is accepted.
//
// # Relationship with Other Components
//
//   - **Assembler:** The only caller of Submit.
//   - **app:** Looks up job state through StatusReader for the job endpoint.
//   - **sioscheduler:** The socket.io implementation used in production.
package scheduler

import (
	"context"
	"errors"

	"github.com/vk/ocrbridge/internal/model"
)

var (
	// ErrNotConfigured is returned by Disabled for every call.
	ErrNotConfigured = errors.New("scheduler not configured")
	// ErrUnknownJob is returned by StatusReader for an id the scheduler does
	// not know.
	ErrUnknownJob = errors.New("unknown job")
)

// Scheduler accepts engine invocations for asynchronous execution.
//
// # Contract
//
// Submit returns once the scheduler has accepted or refused the descriptor;
// it never waits for the job to run. Implementations must be safe for
// concurrent use and must honour ctx cancellation while waiting for the
// acceptance.
type Scheduler interface {
	// Submit queues the descriptor in the given pool and returns its handle.
	Submit(ctx context.Context, job model.JobDescriptor, pool model.Pool) (model.JobHandle, error)
}

// StatusReader looks up the scheduler-side state of a submitted job.
type StatusReader interface {
	// Status returns the current handle of the job with the given id, or
	// ErrUnknownJob.
	Status(ctx context.Context, id string) (model.JobHandle, error)
}
