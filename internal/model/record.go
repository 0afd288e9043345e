// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the engine record persisted for every training job.
//
// Why persist a record at all?
//
// A trained model outlives the job that produced it. The record written next
// to the model keeps the exact engine version, processor and argument list so
// the model can be audited or reproduced later without the scheduler's logs.
package model

import "time"

// EngineMethod tells how an engine record was produced.
type EngineMethod string

const EngineMethodProcessor EngineMethod = "processor"

// EngineState is the lifecycle state stored in an engine record.
type EngineState string

const (
	EngineStateRunning   EngineState = "running"
	EngineStateCompleted EngineState = "completed"
	EngineStateFailed    EngineState = "failed"
)

// EngineType names the OCR engine family.
type EngineType string

const EngineTypeCalamari EngineType = "Calamari"

// EngineRecord is the durable audit record of a training invocation.
type EngineRecord struct {
	ID        string       `json:"id"`
	User      string       `json:"user,omitempty"`
	Method    EngineMethod `json:"method"`
	State     EngineState  `json:"state"`
	Type      EngineType   `json:"type"`
	Version   string       `json:"version"`
	Processor string       `json:"processor"`
	Arguments []string     `json:"arguments"`
	Created   time.Time    `json:"created"`
}
