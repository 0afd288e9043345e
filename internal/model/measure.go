// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the structured result of an evaluation run.
//
// Why carry the raw output?
//
// A measure can be inconsistent or interrupted while still holding salvaged
// numbers. Keeping stdout and stderr next to the parsed values lets the caller
// compare both without going back to the scheduler.
package model

// MeasureState classifies how far an evaluation report could be understood.
type MeasureState string

const (
	MeasureStateCompleted    MeasureState = "completed"
	MeasureStateInconsistent MeasureState = "inconsistent"
	MeasureStateInterrupted  MeasureState = "interrupted"
)

// Summary holds the aggregate statistics of an evaluation report.
type Summary struct {
	ErrorRatePercent float64 `json:"errorRatePercent"`
	TotalErrors      int     `json:"totalErrors"`
	TotalCount       int     `json:"totalCount"`
	TotalLabels      int     `json:"totalLabels"`
}

// Detail is one itemized confusion between ground truth and prediction.
type Detail struct {
	GroundTruth string  `json:"groundTruth"`
	Predicted   string  `json:"predicted"`
	Count       int     `json:"count"`
	Percent     float64 `json:"percent"`
}

// EvaluationMeasure is the parsed evaluation report.
type EvaluationMeasure struct {
	State   MeasureState `json:"state"`
	Message string       `json:"message,omitempty"`
	Stdout  string       `json:"stdout,omitempty"`
	Stderr  string       `json:"stderr,omitempty"`
	Summary *Summary     `json:"summary,omitempty"`
	Details []Detail     `json:"details"`
}
