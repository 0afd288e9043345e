package hcl

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/ocrbridge/internal/config"
	"github.com/vk/ocrbridge/internal/ctxlog"
	"github.com/vk/ocrbridge/internal/schema"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Decoder is the HCL-specific implementation of the config.Decoder interface.
type Decoder struct{}

// NewDecoder creates a new HCL descriptor decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Extensions implements config.Decoder.
func (d *Decoder) Extensions() []string {
	return []string{".hcl", ".json"}
}

// Decode implements config.Decoder.
func (d *Decoder) Decode(ctx context.Context, filename string, src []byte) (*config.RawDescriptor, error) {
	logger := ctxlog.FromContext(ctx)

	file, err := parseSource(hclparse.NewParser(), filename, src)
	if err != nil {
		return nil, err
	}

	evalCtx := newEvalContext()
	var root schema.DescriptorFile
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode descriptor %s: %w", filename, diags)
	}

	model, err := modelJSON(&root, evalCtx)
	if err != nil {
		return nil, fmt.Errorf("descriptor %s: %w", filename, err)
	}

	raw := &config.RawDescriptor{
		Description: root.Description,
		Categories:  root.Categories,
		Steps:       root.Steps,
		Model:       model,
	}
	for _, a := range root.Aliases {
		values, err := aliasValues(a, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("descriptor %s: %w", filename, err)
		}
		raw.Aliases = append(raw.Aliases, config.AliasEntry{Token: a.Token, Values: values})
	}
	if fw := root.Framework; fw != nil {
		raw.Framework = &config.Framework{Version: fw.Version}
		for _, r := range fw.Reserved {
			raw.Framework.Reserved = append(raw.Framework.Reserved, config.ReservedArgument{
				Role:  config.ReservedRole(r.Role),
				Flag:  r.Flag,
				Value: r.Value,
			})
		}
	}

	logger.Debug("Decoded HCL descriptor.", "file", filename, "aliases", len(raw.Aliases), "framework", raw.Framework != nil)
	return raw, nil
}

// aliasValues evaluates an alias value list and converts every element to a
// string, so `values = ["--epochs", 1]` is accepted.
func aliasValues(a *schema.Alias, evalCtx *hcl.EvalContext) ([]string, error) {
	val, diags := a.Values.Value(evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("alias %q: %w", a.Token, diags)
	}
	ty := val.Type()
	if val.IsNull() || !(ty.IsTupleType() || ty.IsListType() || ty.IsSetType()) {
		return nil, fmt.Errorf("alias %q: values must be a list", a.Token)
	}
	if val.LengthInt() == 0 {
		return []string{}, nil
	}
	converted, err := convert.Convert(val, cty.List(cty.String))
	if err != nil {
		return nil, fmt.Errorf("alias %q: cannot convert %s to a list of strings: %w", a.Token, val.Type().FriendlyName(), err)
	}
	var values []string
	if err := gocty.FromCtyValue(converted, &values); err != nil {
		return nil, fmt.Errorf("alias %q: %w", a.Token, err)
	}
	return values, nil
}

// modelJSON evaluates the free-form model attribute and renders it as JSON.
// A missing attribute yields nil.
func modelJSON(root *schema.DescriptorFile, evalCtx *hcl.EvalContext) (json.RawMessage, error) {
	if root.Model == nil {
		return nil, nil
	}
	val, diags := root.Model.Value(evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluating model: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("model contains unknown values")
	}
	data, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return nil, fmt.Errorf("encoding model: %w", err)
	}
	return data, nil
}
