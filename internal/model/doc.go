// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the shared Go types of the OCR engine adapter: the job
// kinds, the caller-supplied batch and dataset structures, the job descriptor
// handed to the scheduler, the persisted engine record and the structured
// evaluation measure.
//
// # Core Concepts
//
//   - JobKind: one of evaluation, recognition or training. It selects the root
//     folder, the descriptor and the processor used for a request.
//
//   - BatchArgument / Dataset: lists of file-bearing items sent by callers. A
//     BatchArgument becomes one engine flag followed by absolute file paths; a
//     Dataset becomes the training manifest.
//
//   - JobDescriptor: the fully assembled invocation of the engine binary. It
//     is what the scheduler receives and nothing in it refers back to the
//     request that produced it.
//
//   - EngineRecord: the audit record written next to a training model.
//
//   - EvaluationMeasure: the typed result of parsing an evaluation report.
//
// Every type in this package is a plain value. None of them hold references to
// stores, loggers or clients, so they can be copied freely between requests.
package model
