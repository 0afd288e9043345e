// Package sioscheduler submits engine jobs to a remote scheduler over
// socket.io.
//
// One connection carries every request. Each request is tagged with a
// correlation id. The scheduler answers a "job:submit" with "job:accepted" or
// "job:rejected", and a "job:status" with "job:state", each carrying the same
// id. Pending requests wait on their own channel, so concurrent callers never
// see each other's answers.
package sioscheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/ocrbridge/internal/config"
	"github.com/vk/ocrbridge/internal/ctxlog"
	"github.com/vk/ocrbridge/internal/model"
	"github.com/vk/ocrbridge/internal/scheduler"
)

// Event names of the scheduler protocol.
const (
	EventSubmit   = "job:submit"
	EventAccepted = "job:accepted"
	EventRejected = "job:rejected"
	EventStatus   = "job:status"
	EventState    = "job:state"
)

var (
	// ErrRejected is returned when the scheduler refuses a job.
	ErrRejected = errors.New("job rejected by scheduler")
	// ErrTimeout is returned when no acknowledgement arrives in time.
	ErrTimeout = errors.New("timed out waiting for scheduler acknowledgement")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("scheduler client closed")
)

type submitMessage struct {
	CorrelationID string              `json:"correlationId"`
	Pool          model.Pool          `json:"pool"`
	Job           model.JobDescriptor `json:"job"`
}

type statusMessage struct {
	CorrelationID string `json:"correlationId"`
	ID            string `json:"id"`
}

type ackMessage struct {
	CorrelationID string         `json:"correlationId"`
	ID            string         `json:"id"`
	Key           string         `json:"key"`
	Pool          model.Pool     `json:"pool"`
	State         model.JobState `json:"state"`
	Reason        string         `json:"reason"`

	rejected bool
}

// Client is a scheduler.Scheduler and scheduler.StatusReader backed by a
// socket.io connection.
type Client struct {
	conn    conn
	timeout time.Duration
	logger  *slog.Logger
	newID   func() string

	mu      sync.Mutex
	pending map[string]chan ackMessage
	closed  bool
}

var (
	_ scheduler.Scheduler    = (*Client)(nil)
	_ scheduler.StatusReader = (*Client)(nil)
)

// Dial connects to the scheduler described by cfg.
func Dial(ctx context.Context, cfg config.Scheduler) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("component", "sioscheduler", "url", cfg.URL, "namespace", cfg.Namespace)
	logger.Info("Connecting to scheduler...")

	c, err := dialSocket(ctx, logger, cfg.URL, cfg.Namespace, cfg.InsecureSkipVerify, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return newClient(c, cfg.Timeout, logger), nil
}

func newClient(c conn, timeout time.Duration, logger *slog.Logger) *Client {
	client := &Client{
		conn:    c,
		timeout: timeout,
		logger:  logger,
		newID:   uuid.NewString,
		pending: make(map[string]chan ackMessage),
	}
	c.On(EventAccepted, func(data ...any) { client.acknowledge(data, false) })
	c.On(EventRejected, func(data ...any) { client.acknowledge(data, true) })
	c.On(EventState, func(data ...any) { client.acknowledge(data, false) })
	c.On("disconnect", func(reason ...any) {
		logger.Warn("Disconnected from scheduler.", "reason", fmt.Sprint(reason...))
	})
	return client
}

// Submit implements scheduler.Scheduler.
func (c *Client) Submit(ctx context.Context, job model.JobDescriptor, pool model.Pool) (model.JobHandle, error) {
	id := c.newID()
	ctxlog.FromContext(ctx).Debug("Submitting job to scheduler.", "key", job.Key, "pool", pool, "correlation_id", id)

	ack, err := c.request(ctx, EventSubmit, id, submitMessage{CorrelationID: id, Pool: pool, Job: job})
	if err != nil {
		return model.JobHandle{}, fmt.Errorf("job %s: %w", job.Key, err)
	}
	if ack.rejected {
		return model.JobHandle{}, fmt.Errorf("%w: %s", ErrRejected, ack.Reason)
	}
	state := ack.State
	if state == "" {
		state = model.JobStateQueued
	}
	return model.JobHandle{ID: ack.ID, Key: job.Key, Pool: pool, State: state}, nil
}

// Status implements scheduler.StatusReader. An answer without a state means
// the scheduler does not know the job.
func (c *Client) Status(ctx context.Context, jobID string) (model.JobHandle, error) {
	id := c.newID()
	ctxlog.FromContext(ctx).Debug("Requesting job state from scheduler.", "job_id", jobID, "correlation_id", id)

	ack, err := c.request(ctx, EventStatus, id, statusMessage{CorrelationID: id, ID: jobID})
	if err != nil {
		return model.JobHandle{}, fmt.Errorf("job %s: %w", jobID, err)
	}
	if ack.State == "" {
		return model.JobHandle{}, fmt.Errorf("%w: %s", scheduler.ErrUnknownJob, jobID)
	}
	return model.JobHandle{ID: jobID, Key: ack.Key, Pool: ack.Pool, State: ack.State}, nil
}

// request emits msg under event and waits for the answer carrying id.
func (c *Client) request(ctx context.Context, event, id string, msg any) (ackMessage, error) {
	ch := make(chan ackMessage, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ackMessage{}, ErrClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	payload, err := toPayload(msg)
	if err != nil {
		return ackMessage{}, fmt.Errorf("encoding %s: %w", event, err)
	}
	c.conn.Emit(event, payload)

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case ack := <-ch:
		return ack, nil
	case <-ctx.Done():
		return ackMessage{}, fmt.Errorf("waiting for answer to %s: %w", event, ctx.Err())
	case <-timer.C:
		return ackMessage{}, fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	}
}

// Close disconnects from the scheduler. Pending submissions run into their
// context or timeout.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.conn.Disconnect()
	return nil
}

// acknowledge routes an answer to the submission waiting for it.
func (c *Client) acknowledge(data []any, rejected bool) {
	if len(data) == 0 {
		c.logger.Warn("Ignoring empty scheduler acknowledgement.")
		return
	}
	ack, err := decodeAck(data[0])
	if err != nil {
		c.logger.Warn("Ignoring malformed scheduler acknowledgement.", "error", err)
		return
	}
	ack.rejected = rejected

	c.mu.Lock()
	ch, ok := c.pending[ack.CorrelationID]
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("Ignoring acknowledgement for unknown submission.", "correlation_id", ack.CorrelationID)
		return
	}
	select {
	case ch <- ack:
	default:
	}
}

// toPayload renders a message as the generic map the socket.io parser expects.
func toPayload(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// decodeAck accepts whatever the socket.io parser produced (usually a
// map[string]any) by going through JSON.
func decodeAck(v any) (ackMessage, error) {
	var ack ackMessage
	raw, err := json.Marshal(v)
	if err != nil {
		return ack, err
	}
	if err := json.Unmarshal(raw, &ack); err != nil {
		return ack, err
	}
	if ack.CorrelationID == "" {
		return ack, errors.New("missing correlationId")
	}
	return ack, nil
}
