// Package yamlconf implements config.Decoder for descriptor resources written
// in YAML.
package yamlconf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vk/ocrbridge/internal/config"
	"github.com/vk/ocrbridge/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

type aliasFile struct {
	Token  string   `yaml:"token"`
	Values []string `yaml:"values"`
}

type reservedFile struct {
	Role  string `yaml:"role"`
	Flag  string `yaml:"flag"`
	Value string `yaml:"value"`
}

type frameworkFile struct {
	Version  string         `yaml:"version"`
	Reserved []reservedFile `yaml:"reserved"`
}

type descriptorFile struct {
	Description string         `yaml:"description"`
	Categories  []string       `yaml:"categories"`
	Steps       []string       `yaml:"steps"`
	Model       any            `yaml:"model"`
	Aliases     []aliasFile    `yaml:"aliases"`
	Framework   *frameworkFile `yaml:"framework"`
}

// Decoder reads descriptors from YAML documents.
type Decoder struct{}

// NewDecoder creates a new YAML descriptor decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Extensions implements config.Decoder.
func (d *Decoder) Extensions() []string {
	return []string{".yaml", ".yml"}
}

// Decode implements config.Decoder. Unknown keys are rejected.
func (d *Decoder) Decode(ctx context.Context, filename string, src []byte) (*config.RawDescriptor, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)

	var f descriptorFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("descriptor %s is empty", filename)
		}
		return nil, fmt.Errorf("failed to decode descriptor %s: %w", filename, err)
	}

	raw := &config.RawDescriptor{
		Description: f.Description,
		Categories:  f.Categories,
		Steps:       f.Steps,
	}
	if f.Model != nil {
		data, err := json.Marshal(f.Model)
		if err != nil {
			return nil, fmt.Errorf("descriptor %s: encoding model: %w", filename, err)
		}
		raw.Model = data
	}
	for _, a := range f.Aliases {
		raw.Aliases = append(raw.Aliases, config.AliasEntry{Token: a.Token, Values: a.Values})
	}
	if f.Framework != nil {
		raw.Framework = &config.Framework{Version: f.Framework.Version}
		for _, r := range f.Framework.Reserved {
			raw.Framework.Reserved = append(raw.Framework.Reserved, config.ReservedArgument{
				Role:  config.ReservedRole(r.Role),
				Flag:  r.Flag,
				Value: r.Value,
			})
		}
	}

	ctxlog.FromContext(ctx).Debug("Decoded YAML descriptor.", "file", filename, "aliases", len(raw.Aliases))
	return raw, nil
}
