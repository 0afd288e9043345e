// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the job kinds, the scheduler pools and the descriptor that
// is submitted for execution.
//
// Why a separate JobDescriptor?
//
// The descriptor is the boundary between this service and the scheduler. Once
// the assembler hands it over, the scheduler owns it; the descriptor therefore
// carries only literal strings (paths, executable, arguments) and never any
// symbolic alias or unresolved identifier.
package model

import (
	"fmt"
	"strings"
)

// JobKind selects which root folder, descriptor and processor apply to a request.
type JobKind string

const (
	JobKindEvaluation  JobKind = "evaluation"
	JobKindRecognition JobKind = "recognition"
	JobKindTraining    JobKind = "training"
)

// JobKinds lists every supported kind in a stable order.
var JobKinds = []JobKind{JobKindEvaluation, JobKindRecognition, JobKindTraining}

// ParseJobKind converts a raw name into a JobKind. Surrounding whitespace is
// ignored, case is not.
func ParseJobKind(raw string) (JobKind, error) {
	kind := JobKind(strings.TrimSpace(raw))
	for _, k := range JobKinds {
		if k == kind {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown job kind %q", raw)
}

// String implements fmt.Stringer.
func (k JobKind) String() string {
	return string(k)
}

// Pool is the scheduler thread pool a job is submitted to.
type Pool string

const (
	PoolStandard      Pool = "standard"
	PoolTimeConsuming Pool = "time-consuming"
)

// JobDescriptor is the engine invocation handed to the scheduler.
type JobDescriptor struct {
	Key              string   `json:"key"`
	WorkingDirectory string   `json:"workingDirectory"`
	Executable       string   `json:"executable"`
	Arguments        []string `json:"arguments"`
	CaptureStdout    bool     `json:"captureStdout"`
	CaptureStderr    bool     `json:"captureStderr"`
}

// JobState is the scheduler-side lifecycle state of a submitted job.
type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateRunning   JobState = "running"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// JobHandle identifies a job accepted by the scheduler.
type JobHandle struct {
	ID    string   `json:"id"`
	Key   string   `json:"key"`
	Pool  Pool     `json:"pool"`
	State JobState `json:"state"`
}
