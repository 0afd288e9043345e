package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/ocrbridge/internal/assembler"
	"github.com/vk/ocrbridge/internal/config"
	"github.com/vk/ocrbridge/internal/engine"
	"github.com/vk/ocrbridge/internal/hcl"
	"github.com/vk/ocrbridge/internal/model"
	"github.com/vk/ocrbridge/internal/scheduler"
	"github.com/vk/ocrbridge/internal/yamlconf"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHandler_Health(t *testing.T) {
	a, _ := newTestEnv(t).newApp(t)
	rec := do(t, a.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestHandler_Description(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.resources, "recognition.hcl"), []byte("description = "), 0o644))
	a, _ := env.newApp(t)
	h := a.Handler()

	t.Run("available kind", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/v1.0/evaluation/description", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var got struct {
			ID         string                    `json:"id"`
			Categories []string                  `json:"categories"`
			Model      map[string]map[string]any `json:"model"`
		}
		decodeBody(t, rec, &got)
		assert.Equal(t, "calamari-eval", got.ID)
		assert.Equal(t, []string{"Evaluation"}, got.Categories)
		assert.Contains(t, got.Model, "collection")
	})

	t.Run("unavailable kind", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/v1.0/recognition/description", "")
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})

	t.Run("unknown kind", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/v1.0/segmentation/description", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/v1.0/evaluation/description", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHandler_EvaluationExecute(t *testing.T) {
	env := newTestEnv(t)
	sched := &recordingScheduler{}
	a, _ := env.newApp(t, WithScheduler(sched))
	h := a.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1.0/evaluation/execute",
		`{"key":"k1","collection":"c1","arguments":["--confusions","--batch"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var handle model.JobHandle
	decodeBody(t, rec, &handle)
	assert.Equal(t, "k1", handle.Key)
	assert.Equal(t, model.PoolStandard, handle.Pool)

	require.Len(t, sched.jobs, 1)
	job := sched.jobs[0]
	assert.Equal(t, filepath.Join(env.root, "data", "c1"), job.WorkingDirectory)
	assert.Equal(t, "calamari-eval", job.Executable)
	assert.Equal(t, []string{"--n_confusions", "10", "--batch"}, job.Arguments)
}

func TestHandler_ErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.resources, "recognition.hcl"), []byte("description = "), 0o644))

	tests := []struct {
		name   string
		sched  scheduler.Scheduler
		path   string
		body   string
		status int
	}{
		{
			name:   "malformed json",
			sched:  &recordingScheduler{},
			path:   "/api/v1.0/evaluation/execute",
			body:   `{"collection":`,
			status: http.StatusBadRequest,
		},
		{
			name:   "missing collection",
			sched:  &recordingScheduler{},
			path:   "/api/v1.0/evaluation/execute",
			body:   `{"collection":"nope"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "collection escapes data root",
			sched:  &recordingScheduler{},
			path:   "/api/v1.0/evaluation/execute",
			body:   `{"collection":"../projects"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "no scheduler configured",
			sched:  scheduler.Disabled{},
			path:   "/api/v1.0/evaluation/execute",
			body:   `{"collection":"c1"}`,
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "scheduler rejects",
			sched:  &recordingScheduler{err: errors.New("queue full")},
			path:   "/api/v1.0/evaluation/execute",
			body:   `{"collection":"c1"}`,
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "unavailable kind",
			sched:  &recordingScheduler{},
			path:   "/api/v1.0/recognition/execute",
			body:   `{"folder":"."}`,
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "measure folder outside temporary root",
			sched:  &recordingScheduler{},
			path:   "/api/v1.0/evaluation/measure",
			body:   `{"folder":"../data/c1"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "training without model",
			sched:  &recordingScheduler{},
			path:   "/api/v1.0/training/execute",
			body:   `{"modelId":"m1","dataset":{"items":[{"id":"c1","files":["a.png"]}]}}`,
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := env.newApp(t, WithScheduler(tc.sched))
			rec := do(t, a.Handler(), http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())

			var body map[string]string
			decodeBody(t, rec, &body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHandler_JobStatus(t *testing.T) {
	env := newTestEnv(t)

	t.Run("known job", func(t *testing.T) {
		a, _ := env.newApp(t, WithScheduler(&recordingScheduler{}))
		rec := do(t, a.Handler(), http.MethodGet, "/api/v1.0/job/job-1", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var handle model.JobHandle
		decodeBody(t, rec, &handle)
		assert.Equal(t, model.JobHandle{ID: "job-1", Key: "k1", Pool: model.PoolStandard, State: model.JobStateRunning}, handle)
	})

	t.Run("unknown job", func(t *testing.T) {
		a, logs := env.newApp(t, WithScheduler(&recordingScheduler{}))
		rec := do(t, a.Handler(), http.MethodGet, "/api/v1.0/job/job-404", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, logs.String(), "Job state requested for unknown job.")
	})

	t.Run("scheduler failure", func(t *testing.T) {
		a, logs := env.newApp(t, WithScheduler(&recordingScheduler{err: errors.New("connection lost")}))
		rec := do(t, a.Handler(), http.MethodGet, "/api/v1.0/job/job-1", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, logs.String(), "level=ERROR msg=\"Request failed.\"")
	})

	t.Run("no scheduler configured", func(t *testing.T) {
		a, _ := env.newApp(t)
		rec := do(t, a.Handler(), http.MethodGet, "/api/v1.0/job/job-1", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestWriteFailure_LogLevels(t *testing.T) {
	a, logs := newTestEnv(t).newApp(t, WithScheduler(&recordingScheduler{}))
	h := a.Handler()

	do(t, h, http.MethodPost, "/api/v1.0/evaluation/execute", `{"collection":"nope"}`)
	assert.Contains(t, logs.String(), "level=WARN msg=\"Request rejected.\"")
	assert.NotContains(t, logs.String(), "level=ERROR")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("wrapped: %w", assembler.ErrInvalidArgument)))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(config.ErrUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(scheduler.ErrNotConfigured))
}

func TestHandler_EvaluationMeasure(t *testing.T) {
	runner := &fakeRunner{result: engine.Result{
		Stdout: "Got mean normalized label error rate of 2.50% (10 / 400, 4 Lines)\nGT PRED COUNT PERCENT\n{abc} {abd} 3 0.75%\n",
	}}
	a, _ := newTestEnv(t).newApp(t, WithRunner(runner))

	rec := do(t, a.Handler(), http.MethodPost, "/api/v1.0/evaluation/measure", `{"folder":"run-1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var measure model.EvaluationMeasure
	decodeBody(t, rec, &measure)
	assert.Equal(t, model.MeasureStateCompleted, measure.State)
	require.NotNil(t, measure.Summary)
	assert.Equal(t, 400, measure.Summary.TotalCount)
	assert.Len(t, measure.Details, 1)
}

func TestHandler_TrainingExecute(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(filepath.Join(env.root, "assemble", "m1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.root, "data", "c1", "a.png"), nil, 0o644))
	sched := &recordingScheduler{}
	a, _ := env.newApp(t, WithScheduler(sched))

	rec := do(t, a.Handler(), http.MethodPost, "/api/v1.0/training/execute",
		`{"key":"t1","user":"ada","modelId":"m1","dataset":{"items":[{"id":"c1","files":["a.png"]}]}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got assembler.TrainingJob
	decodeBody(t, rec, &got)
	assert.Equal(t, model.PoolTimeConsuming, got.Handle.Pool)
	assert.Equal(t, "ada", got.Record.User)
	assert.Equal(t, "calamari-train", got.Record.Processor)

	require.Len(t, sched.jobs, 1)
	assert.FileExists(t, filepath.Join(env.root, "assemble", "m1", "dataset.txt"))
	assert.FileExists(t, filepath.Join(env.root, "assemble", "m1", "engine.json"))
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	env := newTestEnv(t)
	cfg, err := NewConfig(Config{SettingsPath: env.settings, ResourcesPath: env.resources, Listen: "127.0.0.1:0"})
	require.NoError(t, err)
	a, logs := SetupAppTest(t, cfg, hcl.NewLoader(),
		WithDecoders(hcl.NewDecoder(), yamlconf.NewDecoder()),
		WithScheduler(&recordingScheduler{}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return a.Addr() != "" }, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + a.Addr() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "OK", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Empty(t, a.Addr())
	assert.Contains(t, logs.String(), "Shutting down HTTP server...")
}
