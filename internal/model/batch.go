// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the file-bearing structures callers send along with a job:
// batch arguments (model references passed under one engine flag) and the
// training dataset.
package model

// Item is one identifier with the files that belong to it. The identifier
// names a folder below a configured root, the files are relative to it.
type Item struct {
	ID    string   `json:"id"`
	Files []string `json:"files"`
}

// BatchArgument is an engine flag backed by a list of items.
type BatchArgument struct {
	Argument string `json:"argument"`
	Items    []Item `json:"items"`
}

// Dataset is the labeled data a training job is run on.
type Dataset struct {
	Items []Item `json:"items"`
}
