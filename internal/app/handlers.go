package app

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vk/ocrbridge/internal/assembler"
	"github.com/vk/ocrbridge/internal/ctxlog"
	"github.com/vk/ocrbridge/internal/model"
	"github.com/vk/ocrbridge/internal/scheduler"
)

const maxRequestBody = 1 << 20

// Handler returns the HTTP API of the service.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /api/v1.0/{kind}/description", a.handleDescription)
	mux.HandleFunc("POST /api/v1.0/evaluation/execute", a.handleEvaluationExecute)
	mux.HandleFunc("POST /api/v1.0/evaluation/measure", a.handleEvaluationMeasure)
	mux.HandleFunc("POST /api/v1.0/recognition/execute", a.handleRecognitionExecute)
	mux.HandleFunc("POST /api/v1.0/training/execute", a.handleTrainingExecute)
	mux.HandleFunc("GET /api/v1.0/job/{id}", a.handleJobStatus)
	return withTracing(withLogging(a.logger, mux))
}

type descriptionResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Categories  []string        `json:"categories"`
	Steps       []string        `json:"steps"`
	Model       json.RawMessage `json:"model"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (a *App) handleDescription(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseJobKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	d, err := a.store.Descriptor(kind)
	if err != nil {
		ctxlog.FromContext(r.Context()).Warn("Description requested for unavailable kind.", "kind", kind, "error", err)
		writeError(w, http.StatusNotImplemented, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, descriptionResponse{
		ID:          a.settings.ProcessorName(kind),
		Description: d.Description,
		Categories:  d.Categories,
		Steps:       d.Steps,
		Model:       d.Model,
	})
}

func (a *App) handleEvaluationExecute(w http.ResponseWriter, r *http.Request) {
	var req assembler.EvaluationRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	handle, err := a.assembler.StartEvaluation(r.Context(), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, handle)
}

func (a *App) handleEvaluationMeasure(w http.ResponseWriter, r *http.Request) {
	var req assembler.MeasureRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	measure, err := a.evaluator.Evaluate(r.Context(), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, measure)
}

func (a *App) handleRecognitionExecute(w http.ResponseWriter, r *http.Request) {
	var req assembler.RecognitionRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	handle, err := a.assembler.StartRecognition(r.Context(), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, handle)
}

func (a *App) handleTrainingExecute(w http.ResponseWriter, r *http.Request) {
	var req assembler.TrainingRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	job, err := a.assembler.StartTraining(r.Context(), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleJobStatus reports the scheduler-side state of a job. Ids the
// scheduler does not know are a bad request.
func (a *App) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	reader, ok := a.scheduler.(scheduler.StatusReader)
	if !ok {
		writeError(w, http.StatusNotImplemented, "scheduler does not report job state")
		return
	}
	handle, err := reader.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			ctxlog.FromContext(r.Context()).Warn("Job state requested for unknown job.", "error", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeFailure(w, r, err)
		return
	}
	ctxlog.FromContext(r.Context()).Debug("Job state reported.", "job_id", handle.ID, "state", handle.State, "key", handle.Key)
	writeJSON(w, http.StatusOK, handle)
}

// decodeRequest reads a JSON body into v. It writes a 400 and returns false
// when the body is malformed.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeFailure maps an assembler or scheduler error to a status code. Invalid
// arguments are the caller's fault; unavailable kinds, scheduler failures and
// everything else are reported as a service failure.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := ctxlog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed.", "status", status, "error", err)
	} else {
		logger.Warn("Request rejected.", "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	if errors.Is(err, assembler.ErrInvalidArgument) {
		return http.StatusBadRequest
	}
	return http.StatusServiceUnavailable
}
