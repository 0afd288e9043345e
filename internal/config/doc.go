// Package config defines the format-agnostic configuration model of the
// service, along with the interfaces (Loader, Decoder) used to read it from
// concrete formats.
//
// Two kinds of configuration exist. Settings describe one deployment: root
// folders, processor executables, output policy and the collaborators to talk
// to. Descriptors describe one job kind: its description, categories, steps,
// input model, argument aliases and, for training, the engine framework. Both
// are built once at startup and are read-only afterwards; they can be shared
// between concurrent requests without locking.
//
// Concrete implementations of the interfaces live in the hcl and yamlconf
// packages.
package config
