package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vk/ocrbridge/internal/alias"
	"github.com/vk/ocrbridge/internal/model"
)

// ReservedRole tells the assembler what value follows a reserved flag.
type ReservedRole string

const (
	// ReservedImages is followed by the path of the dataset manifest.
	ReservedImages ReservedRole = "images"
	// ReservedOutput is followed by the resolved model directory.
	ReservedOutput ReservedRole = "output"
	// ReservedConstant is followed by the literal value from the descriptor.
	ReservedConstant ReservedRole = "constant"
)

// ReservedArgument is one framework argument the assembler appends itself.
type ReservedArgument struct {
	Role  ReservedRole
	Flag  string
	Value string
}

// Framework holds the engine data a descriptor declares for training.
type Framework struct {
	Version  string
	Reserved []ReservedArgument
}

// AliasEntry is one alias declaration as it appears in a resource.
type AliasEntry struct {
	Token  string
	Values []string
}

// RawDescriptor is a decoded resource before validation.
type RawDescriptor struct {
	Description string
	Categories  []string
	Steps       []string
	Model       json.RawMessage
	Aliases     []AliasEntry
	Framework   *Framework
}

// Descriptor is the validated, immutable configuration of one job kind.
type Descriptor struct {
	Kind        model.JobKind
	Source      string
	Description string
	Categories  []string
	Steps       []string
	Model       json.RawMessage
	Aliases     alias.Table
	Framework   *Framework
}

// validate checks the fields every descriptor needs.
func (r *RawDescriptor) validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if r.Framework == nil {
		return nil
	}
	for i, arg := range r.Framework.Reserved {
		switch arg.Role {
		case ReservedImages, ReservedOutput, ReservedConstant:
		default:
			return fmt.Errorf("reserved argument %d: unknown role %q", i, arg.Role)
		}
		if strings.TrimSpace(arg.Flag) == "" {
			return fmt.Errorf("reserved argument %d (%s): flag is required", i, arg.Role)
		}
	}
	return nil
}
