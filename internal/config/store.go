package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/vk/ocrbridge/internal/alias"
	"github.com/vk/ocrbridge/internal/ctxlog"
	"github.com/vk/ocrbridge/internal/model"
)

// ErrUnavailable is returned for a job kind whose descriptor is missing or
// malformed. The service keeps running; only that kind is refused.
var ErrUnavailable = errors.New("configuration unavailable")

// Store holds the descriptors of every job kind, loaded once at startup.
type Store struct {
	descriptors map[model.JobKind]*Descriptor
	problems    map[model.JobKind]error
}

// NewStore loads one descriptor per job kind. Each source is searched in
// order for "<kind><ext>" using every decoder's extensions; the first file
// found decides the outcome for that kind. Problems are logged and recorded,
// never returned, so a single broken resource does not take the service down.
func NewStore(ctx context.Context, sources []fs.FS, decoders ...Decoder) *Store {
	logger := ctxlog.FromContext(ctx)
	s := &Store{
		descriptors: make(map[model.JobKind]*Descriptor, len(model.JobKinds)),
		problems:    make(map[model.JobKind]error),
	}

	for _, kind := range model.JobKinds {
		desc, err := loadDescriptor(ctx, kind, sources, decoders)
		if err != nil {
			logger.Error("Job kind configuration is unavailable.", "kind", kind, "error", err)
			s.problems[kind] = err
			continue
		}
		logger.Info("Loaded job kind configuration.",
			"kind", kind, "source", desc.Source, "aliases", desc.Aliases.Keys())
		s.descriptors[kind] = desc
	}
	return s
}

// NewStoreFromDescriptors builds a store from already validated descriptors.
// Kinds absent from the map are unavailable.
func NewStoreFromDescriptors(descriptors map[model.JobKind]*Descriptor) *Store {
	s := &Store{
		descriptors: make(map[model.JobKind]*Descriptor, len(descriptors)),
		problems:    make(map[model.JobKind]error),
	}
	for _, kind := range model.JobKinds {
		if d, ok := descriptors[kind]; ok && d != nil {
			s.descriptors[kind] = d
			continue
		}
		s.problems[kind] = errors.New("not configured")
	}
	return s
}

// Descriptor returns the descriptor for kind, or an error wrapping
// ErrUnavailable.
func (s *Store) Descriptor(kind model.JobKind) (*Descriptor, error) {
	if d, ok := s.descriptors[kind]; ok {
		return d, nil
	}
	if err, ok := s.problems[kind]; ok {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, kind, err)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnavailable, kind)
}

// Available reports the kinds that loaded successfully.
func (s *Store) Available() []model.JobKind {
	var kinds []model.JobKind
	for _, kind := range model.JobKinds {
		if _, ok := s.descriptors[kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

func loadDescriptor(ctx context.Context, kind model.JobKind, sources []fs.FS, decoders []Decoder) (*Descriptor, error) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		for _, dec := range decoders {
			for _, ext := range dec.Extensions() {
				name := string(kind) + ext
				data, err := fs.ReadFile(src, name)
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				if err != nil {
					return nil, fmt.Errorf("reading %s: %w", name, err)
				}
				raw, err := dec.Decode(ctx, name, data)
				if err != nil {
					return nil, fmt.Errorf("decoding %s: %w", name, err)
				}
				return buildDescriptor(ctx, kind, name, raw)
			}
		}
	}
	return nil, fmt.Errorf("no descriptor resource found for %s", kind)
}

func buildDescriptor(ctx context.Context, kind model.JobKind, source string, raw *RawDescriptor) (*Descriptor, error) {
	if raw == nil {
		return nil, fmt.Errorf("%s: empty descriptor", source)
	}
	if err := raw.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if kind == model.JobKindTraining && raw.Framework == nil {
		return nil, fmt.Errorf("%s: framework block is required for training", source)
	}

	return &Descriptor{
		Kind:        kind,
		Source:      source,
		Description: raw.Description,
		Categories:  slices.Clone(raw.Categories),
		Steps:       slices.Clone(raw.Steps),
		Model:       raw.Model,
		Aliases:     BuildAliasTable(ctx, source, raw.Aliases),
		Framework:   raw.Framework,
	}, nil
}

// BuildAliasTable turns ordered alias entries into a table. A token declared
// more than once keeps its first mapping and the rest are logged and dropped.
func BuildAliasTable(ctx context.Context, source string, entries []AliasEntry) alias.Table {
	logger := ctxlog.FromContext(ctx)
	table := make(alias.Table, len(entries))
	for _, e := range entries {
		if _, dup := table[e.Token]; dup {
			logger.Warn("Ignoring duplicate argument alias.", "source", source, "alias", e.Token)
			continue
		}
		table[e.Token] = slices.Clone(e.Values)
	}
	return table
}
