package config

import "context"

// Loader is the interface for a format-specific settings loader.
type Loader interface {
	// Load reads the settings file at path, applies defaults and returns the
	// validated settings.
	Load(ctx context.Context, path string) (*Settings, error)
}

// Decoder is the interface for a format-specific descriptor decoder.
type Decoder interface {
	// Extensions returns the file extensions (with leading dot) the decoder
	// understands, in order of preference.
	Extensions() []string

	// Decode parses one descriptor resource. Alias entries are returned in
	// source order, duplicates included; the Store resolves them.
	Decode(ctx context.Context, filename string, src []byte) (*RawDescriptor, error)
}
