// Package app contains the core application logic. It wires the settings,
// descriptor store, assembler, evaluator and scheduler into one App, and runs
// the JSON API around them until the context is cancelled. It is decoupled
// from any specific entrypoint like a CLI.
package app
